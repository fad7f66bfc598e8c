package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"club-chat-service/internal/models"
	"club-chat-service/internal/notifier"
	"club-chat-service/internal/observability"
	"club-chat-service/internal/readtracker"
	"club-chat-service/internal/repositories"
	"club-chat-service/internal/telemetry"
	wspkg "club-chat-service/internal/ws"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// MessageHandler manages the message log endpoints.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	tracker     *readtracker.Tracker
	hub         *wspkg.Hub
	audit       *telemetry.AuditEmitter
	events      *notifier.Notifier
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, tracker *readtracker.Tracker, hub *wspkg.Hub, audit *telemetry.AuditEmitter, events *notifier.Notifier) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		tracker:     tracker,
		hub:         hub,
		audit:       audit,
		events:      events,
	}
}

// PostMessage handles POST /groups/:group_id/messages.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		Content     string              `json:"content"`
		MessageType string              `json:"message_type"`
		ReplyTo     *int64              `json:"reply_to"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.SendMessage(c.Request.Context(), groupID, actorID(c), models.MessageDraft{
		Content:     req.Content,
		MessageType: models.MessageType(req.MessageType),
		ReplyTo:     req.ReplyTo,
		Attachments: req.Attachments,
	})
	observability.IncMutation("send_message", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "message rejected")
		respondError(c, err)
		return
	}

	h.tracker.BumpGroup(c.Request.Context(), groupID)
	h.hub.BroadcastMessage(groupID, msg)
	h.events.MessageSent(c.Request.Context(), msg)
	h.emitAudit(c, "INFO", "Message sent")
	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /groups/:group_id/messages with cursor paging,
// newest first.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page, err := h.messageRepo.ListMessages(c.Request.Context(), groupID, actorID(c), c.Query("cursor"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// EditMessage handles PATCH /groups/:group_id/messages/:message_id.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.GroupID != groupID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found in group"})
		return
	}

	msg, err := h.messageRepo.EditMessage(c.Request.Context(), messageID, actorID(c), req.Content)
	observability.IncMutation("edit_message", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastEdit(groupID, msg)
	h.emitAudit(c, "INFO", "Message edited")
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage handles DELETE /groups/:group_id/messages/:message_id. The
// message is tombstoned so the log keeps its position.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	existing, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.GroupID != groupID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found in group"})
		return
	}

	msg, err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID, actorID(c))
	observability.IncMutation("delete_message", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "message deletion rejected")
		respondError(c, err)
		return
	}

	h.tracker.BumpGroup(c.Request.Context(), groupID)
	h.hub.BroadcastDeletion(groupID, messageID)
	h.events.MessageDeleted(c.Request.Context(), groupID, actorID(c), messageID)
	h.emitAudit(c, "INFO", "Message deleted")
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), memberIDFromContext(c))
}
