package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-chat-service/internal/notifier"
	"club-chat-service/internal/observability"
	"club-chat-service/internal/repositories"
	wspkg "club-chat-service/internal/ws"
)

// ReactionHandler manages emoji reactions on messages.
type ReactionHandler struct {
	reactionRepo repositories.ReactionRepository
	messageRepo  repositories.MessageRepository
	hub          *wspkg.Hub
	events       *notifier.Notifier
}

// NewReactionHandler constructs a ReactionHandler.
func NewReactionHandler(reactionRepo repositories.ReactionRepository, messageRepo repositories.MessageRepository, hub *wspkg.Hub, events *notifier.Notifier) *ReactionHandler {
	return &ReactionHandler{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		hub:          hub,
		events:       events,
	}
}

// ToggleReaction handles POST /messages/:message_id/reactions. A second
// toggle of the same (member, emoji) pair removes the reaction.
func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction, added, err := h.reactionRepo.ToggleReaction(c.Request.Context(), messageID, actorID(c), req.Emoji)
	observability.IncMutation("toggle_reaction", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	// The toggle result carries no group id; resolve it for fan-out.
	if msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID); err == nil {
		h.hub.BroadcastReaction(msg.GroupID, messageID, actorID(c), req.Emoji, added)
		h.events.ReactionToggled(c.Request.Context(), msg.GroupID, actorID(c), messageID, req.Emoji, added)
	}

	c.JSON(http.StatusOK, gin.H{"reaction": reaction, "added": added})
}

// ListReactions handles GET /messages/:message_id/reactions.
func (h *ReactionHandler) ListReactions(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	reactions, err := h.reactionRepo.ListReactions(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
