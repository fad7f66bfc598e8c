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
	"club-chat-service/internal/mocks"
	"club-chat-service/internal/models"
	"club-chat-service/internal/readtracker"
)

func setupGroupRouter(handler *GroupHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("memberID", int64(1))
		c.Next()
	})
	r.POST("/groups", handler.CreateGroup)
	r.GET("/groups", handler.ListGroups)
	r.GET("/groups/:group_id", handler.GetGroup)
	r.PATCH("/groups/:group_id", handler.UpdateGroup)
	r.DELETE("/groups/:group_id", handler.DeleteGroup)
	return r
}

func newGroupHandler(groupRepo *mocks.GroupRepositoryMock, msgRepo *mocks.MessageRepositoryMock) *GroupHandler {
	return NewGroupHandler(groupRepo, readtracker.New(msgRepo, nil), nil, nil)
}

func TestCreateGroupSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := newGroupHandler(groupRepo, new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	groupRepo.On("CreateGroup", mock.Anything, int64(1), mock.AnythingOfType("models.GroupSpec")).
		Return(models.Group{ID: 5, Name: "chess club", GroupType: models.GroupTypeClub}, nil).Once()

	body := bytes.NewBufferString(`{"name":"chess club","group_type":"club"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestCreateGroupInvalidBody(t *testing.T) {
	handler := newGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(`{"name":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupBadType(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := newGroupHandler(groupRepo, new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	groupRepo.On("CreateGroup", mock.Anything, int64(1), mock.AnythingOfType("models.GroupSpec")).
		Return(models.Group{}, apperr.Validation(apperr.CodeBadSettings, "unknown group type")).Once()

	body := bytes.NewBufferString(`{"name":"x","group_type":"guild"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), apperr.CodeBadSettings)
	groupRepo.AssertExpectations(t)
}

func TestListGroupsFillsUnreadCounts(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newGroupHandler(groupRepo, msgRepo)
	router := setupGroupRouter(handler)

	summaries := []models.GroupSummary{
		{Group: models.Group{ID: 5, Name: "a"}},
		{Group: models.Group{ID: 9, Name: "b"}},
	}
	groupRepo.On("ListGroupsForMember", mock.Anything, int64(1)).Return(summaries, nil).Once()
	msgRepo.On("UnreadCount", mock.Anything, int64(5), int64(1)).Return(int64(3), nil).Once()
	msgRepo.On("UnreadCount", mock.Anything, int64(9), int64(1)).Return(int64(0), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"unread_count":3`)
	groupRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}

func TestGetGroupNotMember(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := newGroupHandler(groupRepo, new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	groupRepo.On("IsMember", mock.Anything, int64(9), int64(1)).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestGetGroupInvalidID(t *testing.T) {
	handler := newGroupHandler(new(mocks.GroupRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/groups/bad", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateGroupForbiddenForMember(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := newGroupHandler(groupRepo, new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	groupRepo.On("UpdateGroup", mock.Anything, int64(9), int64(1), mock.AnythingOfType("models.GroupPatch")).
		Return(models.Group{}, apperr.Unauthorized(apperr.CodeForbidden, "requires role admin")).Once()

	req := httptest.NewRequest(http.MethodPatch, "/groups/9", bytes.NewBufferString(`{"name":"renamed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestDeleteGroupSuccess(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := newGroupHandler(groupRepo, new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	groupRepo.On("DeleteGroup", mock.Anything, int64(9), int64(1)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	groupRepo.AssertExpectations(t)
}

func TestDeleteGroupAlreadyDeleted(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	handler := newGroupHandler(groupRepo, new(mocks.MessageRepositoryMock))
	router := setupGroupRouter(handler)

	groupRepo.On("DeleteGroup", mock.Anything, int64(9), int64(1)).
		Return(apperr.InvalidState(apperr.CodeGroupDeleted, "group is deleted")).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	groupRepo.AssertExpectations(t)
}
