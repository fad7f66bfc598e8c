package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"club-chat-service/internal/apperr"
	"club-chat-service/internal/authz"
	"club-chat-service/internal/mocks"
	"club-chat-service/internal/models"
	"club-chat-service/internal/readtracker"
	"club-chat-service/internal/ws"
)

func setupMembershipRouter(handler *MembershipHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("memberID", int64(1))
		c.Next()
	})
	r.POST("/groups/:group_id/members", handler.AddMember)
	r.POST("/groups/:group_id/join", handler.JoinGroup)
	r.DELETE("/groups/:group_id/members/:member_id", handler.RemoveMember)
	r.POST("/groups/:group_id/members/:member_id/promote", handler.PromoteToAdmin)
	r.POST("/groups/:group_id/members/:member_id/demote", handler.DemoteToMember)
	r.POST("/groups/:group_id/transfer-ownership", handler.TransferOwnership)
	r.POST("/groups/:group_id/leave", handler.LeaveGroup)
	r.PATCH("/groups/:group_id/membership", handler.UpdateSettings)
	r.GET("/groups/:group_id/members", handler.ListMembers)
	r.POST("/groups/:group_id/read", handler.MarkRead)
	return r
}

func newMembershipHandler(memberRepo *mocks.MembershipRepositoryMock) *MembershipHandler {
	tracker := readtracker.New(new(mocks.MessageRepositoryMock), nil)
	return NewMembershipHandler(memberRepo, tracker, ws.NewHub(), nil, nil)
}

func TestAddMemberSuccess(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("AddMember", mock.Anything, int64(9), int64(1), int64(4)).
		Return(models.Membership{GroupID: 9, MemberID: 4, Role: authz.RoleMember}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/members", bytes.NewBufferString(`{"member_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestAddMemberGroupFull(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("AddMember", mock.Anything, int64(9), int64(1), int64(4)).
		Return(models.Membership{}, apperr.Conflict(apperr.CodeGroupFull, "group is at capacity")).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/members", bytes.NewBufferString(`{"member_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), apperr.CodeGroupFull)
	memberRepo.AssertExpectations(t)
}

func TestAddMemberDuplicate(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("AddMember", mock.Anything, int64(9), int64(1), int64(4)).
		Return(models.Membership{}, apperr.Conflict(apperr.CodeDuplicateMember, "already a member")).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/members", bytes.NewBufferString(`{"member_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestJoinGroupNotAllowed(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("JoinGroup", mock.Anything, int64(9), int64(1)).
		Return(models.Membership{}, apperr.Unauthorized(apperr.CodeJoinNotAllowed, "group does not accept self-joins")).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestRemoveMemberOwnerImmune(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("RemoveMember", mock.Anything, int64(9), int64(1), int64(2)).
		Return(apperr.Unauthorized(apperr.CodeOwnerImmune, "the owner cannot be removed")).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/9/members/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), apperr.CodeOwnerImmune)
	memberRepo.AssertExpectations(t)
}

func TestPromoteToAdminSuccess(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("PromoteToAdmin", mock.Anything, int64(9), int64(1), int64(4)).
		Return(models.Membership{GroupID: 9, MemberID: 4, Role: authz.RoleAdmin}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/members/4/promote", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"admin"`)
	memberRepo.AssertExpectations(t)
}

func TestDemoteInvalidTransition(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("DemoteToMember", mock.Anything, int64(9), int64(1), int64(4)).
		Return(models.Membership{}, apperr.InvalidState(apperr.CodeInvalidTransition, "member cannot be demoted")).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/members/4/demote", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestTransferOwnershipSuccess(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("TransferOwnership", mock.Anything, int64(9), int64(1), int64(4)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/transfer-ownership", bytes.NewBufferString(`{"member_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestLeaveGroupOwnerCannotLeave(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("LeaveGroup", mock.Anything, int64(9), int64(1)).
		Return(apperr.Conflict(apperr.CodeOwnerCannotLeave, "transfer ownership before leaving")).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/9/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), apperr.CodeOwnerCannotLeave)
	memberRepo.AssertExpectations(t)
}

func TestUpdateSettingsSuccess(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("UpdateSettings", mock.Anything, int64(9), int64(1), mock.AnythingOfType("models.MembershipSettingsPatch")).
		Return(models.Membership{GroupID: 9, MemberID: 1, Role: authz.RoleMember, IsMuted: true}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/groups/9/membership", bytes.NewBufferString(`{"is_muted":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestListMembersNotAMember(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("ListMembers", mock.Anything, int64(9), int64(1)).
		Return(nil, apperr.Unauthorized(apperr.CodeNotAMember, "not a member of this group")).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/9/members", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestMarkReadSuccess(t *testing.T) {
	memberRepo := new(mocks.MembershipRepositoryMock)
	handler := newMembershipHandler(memberRepo)
	router := setupMembershipRouter(handler)

	memberRepo.On("MarkRead", mock.Anything, int64(9), int64(1), mock.AnythingOfType("time.Time")).
		Return(models.Membership{GroupID: 9, MemberID: 1, Role: authz.RoleMember}, nil).Once()

	body := bytes.NewBufferString(`{"up_to":"2026-08-27T10:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/9/read", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	memberRepo.AssertExpectations(t)
}

func TestMarkReadMissingTimestamp(t *testing.T) {
	handler := newMembershipHandler(new(mocks.MembershipRepositoryMock))
	router := setupMembershipRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/groups/9/read", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
