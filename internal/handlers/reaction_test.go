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
	"club-chat-service/internal/ws"
)

func setupReactionRouter(handler *ReactionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("memberID", int64(1))
		c.Next()
	})
	r.POST("/messages/:message_id/reactions", handler.ToggleReaction)
	r.GET("/messages/:message_id/reactions", handler.ListReactions)
	return r
}

func TestToggleReactionAdds(t *testing.T) {
	reactionRepo := new(mocks.ReactionRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewReactionHandler(reactionRepo, messageRepo, ws.NewHub(), nil)
	router := setupReactionRouter(handler)

	reactionRepo.On("ToggleReaction", mock.Anything, int64(3), int64(1), "👍").
		Return(models.Reaction{MessageID: 3, MemberID: 1, Emoji: "👍"}, true, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, int64(3)).
		Return(models.Message{ID: 3, GroupID: 9, SenderID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/3/reactions", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"added":true`)
	reactionRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestToggleReactionRemovesOnSecondToggle(t *testing.T) {
	reactionRepo := new(mocks.ReactionRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewReactionHandler(reactionRepo, messageRepo, ws.NewHub(), nil)
	router := setupReactionRouter(handler)

	reactionRepo.On("ToggleReaction", mock.Anything, int64(3), int64(1), "👍").
		Return(models.Reaction{MessageID: 3, MemberID: 1, Emoji: "👍"}, false, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, int64(3)).
		Return(models.Message{ID: 3, GroupID: 9, SenderID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/3/reactions", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"added":false`)
	reactionRepo.AssertExpectations(t)
}

func TestToggleReactionOnDeletedMessage(t *testing.T) {
	reactionRepo := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(reactionRepo, new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupReactionRouter(handler)

	reactionRepo.On("ToggleReaction", mock.Anything, int64(3), int64(1), "👍").
		Return(models.Reaction{}, false, apperr.InvalidState(apperr.CodeMessageDeleted, "message is deleted")).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/3/reactions", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	reactionRepo.AssertExpectations(t)
}

func TestToggleReactionMissingEmoji(t *testing.T) {
	handler := NewReactionHandler(new(mocks.ReactionRepositoryMock), new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupReactionRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/messages/3/reactions", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReactions(t *testing.T) {
	reactionRepo := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(reactionRepo, new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupReactionRouter(handler)

	reactionRepo.On("ListReactions", mock.Anything, int64(3)).
		Return([]models.Reaction{{MessageID: 3, MemberID: 1, Emoji: "🎉"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/3/reactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	reactionRepo.AssertExpectations(t)
}
