package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"club-chat-service/internal/models"
	"club-chat-service/internal/notifier"
	"club-chat-service/internal/observability"
	"club-chat-service/internal/readtracker"
	"club-chat-service/internal/repositories"
	"club-chat-service/internal/telemetry"
	wspkg "club-chat-service/internal/ws"
)

// MembershipHandler manages group roster and per-member state endpoints.
type MembershipHandler struct {
	memberRepo repositories.MembershipRepository
	tracker    *readtracker.Tracker
	hub        *wspkg.Hub
	audit      *telemetry.AuditEmitter
	events     *notifier.Notifier
}

// NewMembershipHandler constructs a MembershipHandler.
func NewMembershipHandler(memberRepo repositories.MembershipRepository, tracker *readtracker.Tracker, hub *wspkg.Hub, audit *telemetry.AuditEmitter, events *notifier.Notifier) *MembershipHandler {
	return &MembershipHandler{
		memberRepo: memberRepo,
		tracker:    tracker,
		hub:        hub,
		audit:      audit,
		events:     events,
	}
}

// AddMember handles POST /groups/:group_id/members.
func (h *MembershipHandler) AddMember(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		MemberID int64 `json:"member_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.memberRepo.AddMember(c.Request.Context(), groupID, actorID(c), req.MemberID)
	observability.IncMutation("add_member", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "member add rejected")
		respondError(c, err)
		return
	}

	h.hub.BroadcastMembership(groupID, models.EventMemberJoined, req.MemberID, &membership)
	h.events.MemberAdded(c.Request.Context(), groupID, actorID(c), req.MemberID)
	h.emitAudit(c, "INFO", "Member added to group")
	c.JSON(http.StatusCreated, membership)
}

// JoinGroup handles POST /groups/:group_id/join for open groups.
func (h *MembershipHandler) JoinGroup(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	membership, err := h.memberRepo.JoinGroup(c.Request.Context(), groupID, actorID(c))
	observability.IncMutation("join_group", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastMembership(groupID, models.EventMemberJoined, actorID(c), &membership)
	h.events.MemberAdded(c.Request.Context(), groupID, actorID(c), actorID(c))
	h.emitAudit(c, "INFO", "Member joined group")
	c.JSON(http.StatusCreated, membership)
}

// RemoveMember handles DELETE /groups/:group_id/members/:member_id.
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "member_id")
	if !ok {
		return
	}

	err := h.memberRepo.RemoveMember(c.Request.Context(), groupID, actorID(c), targetID)
	observability.IncMutation("remove_member", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "member removal rejected")
		respondError(c, err)
		return
	}

	h.hub.BroadcastMembership(groupID, models.EventMemberLeft, targetID, nil)
	h.events.MemberRemoved(c.Request.Context(), groupID, actorID(c), targetID)
	h.emitAudit(c, "INFO", "Member removed from group")
	c.Status(http.StatusNoContent)
}

// PromoteToAdmin handles POST /groups/:group_id/members/:member_id/promote.
func (h *MembershipHandler) PromoteToAdmin(c *gin.Context) {
	h.changeRole(c, "promote_member", "member.promoted", h.memberRepo.PromoteToAdmin)
}

// DemoteToMember handles POST /groups/:group_id/members/:member_id/demote.
func (h *MembershipHandler) DemoteToMember(c *gin.Context) {
	h.changeRole(c, "demote_member", "member.demoted", h.memberRepo.DemoteToMember)
}

func (h *MembershipHandler) changeRole(c *gin.Context, op, event string, fn func(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error)) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "member_id")
	if !ok {
		return
	}

	membership, err := fn(c.Request.Context(), groupID, actorID(c), targetID)
	observability.IncMutation(op, outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastMembership(groupID, models.EventRoleChanged, targetID, &membership)
	h.events.RoleChanged(c.Request.Context(), groupID, actorID(c), targetID, event)
	h.emitAudit(c, "INFO", "Member role changed")
	c.JSON(http.StatusOK, membership)
}

// TransferOwnership handles POST /groups/:group_id/transfer-ownership.
func (h *MembershipHandler) TransferOwnership(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		MemberID int64 `json:"member_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.memberRepo.TransferOwnership(c.Request.Context(), groupID, actorID(c), req.MemberID)
	observability.IncMutation("transfer_ownership", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "ownership transfer rejected")
		respondError(c, err)
		return
	}

	h.hub.BroadcastMembership(groupID, models.EventRoleChanged, req.MemberID, nil)
	h.events.RoleChanged(c.Request.Context(), groupID, actorID(c), req.MemberID, "ownership.transferred")
	h.emitAudit(c, "INFO", "Group ownership transferred")
	c.Status(http.StatusNoContent)
}

// LeaveGroup handles POST /groups/:group_id/leave.
func (h *MembershipHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	err := h.memberRepo.LeaveGroup(c.Request.Context(), groupID, actorID(c))
	observability.IncMutation("leave_group", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastMembership(groupID, models.EventMemberLeft, actorID(c), nil)
	h.events.MemberRemoved(c.Request.Context(), groupID, actorID(c), actorID(c))
	h.emitAudit(c, "INFO", "Member left group")
	c.Status(http.StatusNoContent)
}

// UpdateSettings handles PATCH /groups/:group_id/membership for the caller's
// own notification and pin preferences.
func (h *MembershipHandler) UpdateSettings(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		NotificationsEnabled *bool `json:"notifications_enabled"`
		IsMuted              *bool `json:"is_muted"`
		IsPinned             *bool `json:"is_pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.memberRepo.UpdateSettings(c.Request.Context(), groupID, actorID(c), models.MembershipSettingsPatch{
		NotificationsEnabled: req.NotificationsEnabled,
		IsMuted:              req.IsMuted,
		IsPinned:             req.IsPinned,
	})
	observability.IncMutation("update_membership_settings", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// ListMembers handles GET /groups/:group_id/members.
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	members, err := h.memberRepo.ListMembers(c.Request.Context(), groupID, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// MarkRead handles POST /groups/:group_id/read. The cursor only ever moves
// forward; a stale up_to is accepted and ignored.
func (h *MembershipHandler) MarkRead(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		UpTo time.Time `json:"up_to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.memberRepo.MarkRead(c.Request.Context(), groupID, actorID(c), req.UpTo)
	observability.IncMutation("mark_read", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	h.tracker.ForgetMember(c.Request.Context(), groupID, actorID(c))
	c.JSON(http.StatusOK, membership)
}

func (h *MembershipHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), memberIDFromContext(c))
}
