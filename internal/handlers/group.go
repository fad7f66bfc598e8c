package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"club-chat-service/internal/models"
	"club-chat-service/internal/notifier"
	"club-chat-service/internal/observability"
	"club-chat-service/internal/readtracker"
	"club-chat-service/internal/repositories"
	"club-chat-service/internal/telemetry"
)

// GroupHandler manages group lifecycle endpoints.
type GroupHandler struct {
	groupRepo repositories.GroupRepository
	tracker   *readtracker.Tracker
	audit     *telemetry.AuditEmitter
	events    *notifier.Notifier
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, tracker *readtracker.Tracker, audit *telemetry.AuditEmitter, events *notifier.Notifier) *GroupHandler {
	return &GroupHandler{
		groupRepo: groupRepo,
		tracker:   tracker,
		audit:     audit,
		events:    events,
	}
}

// CreateGroup handles POST /groups. The creator becomes the owner.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name               string `json:"name" binding:"required"`
		Description        string `json:"description"`
		GroupType          string `json:"group_type" binding:"required"`
		IsPrivate          bool   `json:"is_private"`
		AutoJoin           bool   `json:"auto_join"`
		AllowMemberInvites bool   `json:"allow_member_invites"`
		AllowFileSharing   bool   `json:"allow_file_sharing"`
		MaxMembers         *int64 `json:"max_members"`
		ClassID            *int64 `json:"class_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), actorID(c), models.GroupSpec{
		Name:               req.Name,
		Description:        req.Description,
		GroupType:          models.GroupType(req.GroupType),
		IsPrivate:          req.IsPrivate,
		AutoJoin:           req.AutoJoin,
		AllowMemberInvites: req.AllowMemberInvites,
		AllowFileSharing:   req.AllowFileSharing,
		MaxMembers:         req.MaxMembers,
		ClassID:            req.ClassID,
	})
	observability.IncMutation("create_group", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "group creation rejected")
		respondError(c, err)
		return
	}

	h.events.GroupCreated(c.Request.Context(), group, actorID(c))
	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, group)
}

// ListGroups returns the caller's groups with unread counts, pinned first.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	summaries, err := h.groupRepo.ListGroupsForMember(c.Request.Context(), actorID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}

	for i := range summaries {
		count, err := h.tracker.UnreadCount(c.Request.Context(), summaries[i].ID, actorID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to derive unread counts"})
			return
		}
		summaries[i].UnreadCount = count
	}

	c.JSON(http.StatusOK, gin.H{"groups": summaries})
}

// GetGroup returns one group the caller belongs to.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, actorID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	group, err := h.groupRepo.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// UpdateGroup handles PATCH /groups/:group_id for owner/admin actors.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		Name               *string `json:"name"`
		Description        *string `json:"description"`
		IsPrivate          *bool   `json:"is_private"`
		AutoJoin           *bool   `json:"auto_join"`
		AllowMemberInvites *bool   `json:"allow_member_invites"`
		AllowFileSharing   *bool   `json:"allow_file_sharing"`
		MaxMembers         *int64  `json:"max_members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupRepo.UpdateGroup(c.Request.Context(), groupID, actorID(c), models.GroupPatch{
		Name:               req.Name,
		Description:        req.Description,
		IsPrivate:          req.IsPrivate,
		AutoJoin:           req.AutoJoin,
		AllowMemberInvites: req.AllowMemberInvites,
		AllowFileSharing:   req.AllowFileSharing,
		MaxMembers:         req.MaxMembers,
	})
	observability.IncMutation("update_group", outcomeOf(err))
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group updated")
	c.JSON(http.StatusOK, group)
}

// DeleteGroup tombstones the group and everything in it, owner only.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	err := h.groupRepo.DeleteGroup(c.Request.Context(), groupID, actorID(c))
	observability.IncMutation("delete_group", outcomeOf(err))
	if err != nil {
		h.emitAudit(c, "ERROR", "group deletion rejected")
		respondError(c, err)
		return
	}

	h.tracker.BumpGroup(c.Request.Context(), groupID)
	h.events.GroupDeleted(c.Request.Context(), groupID, actorID(c))
	h.emitAudit(c, "INFO", "Group deleted")
	c.Status(http.StatusNoContent)
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), memberIDFromContext(c))
}
