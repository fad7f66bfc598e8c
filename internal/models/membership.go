package models

import (
	"database/sql"
	"time"

	"club-chat-service/internal/authz"
)

// Membership links one member to one group, carrying the role and personal
// preferences. (group_id, member_id) is the primary key.
type Membership struct {
	GroupID              int64        `db:"group_id" json:"group_id"`
	MemberID             int64        `db:"member_id" json:"member_id"`
	Role                 authz.Role   `db:"role" json:"role"`
	JoinedAt             time.Time    `db:"joined_at" json:"joined_at"`
	LastReadAt           sql.NullTime `db:"last_read_at" json:"last_read_at,omitempty"`
	NotificationsEnabled bool         `db:"notifications_enabled" json:"notifications_enabled"`
	IsMuted              bool         `db:"is_muted" json:"is_muted"`
	IsPinned             bool         `db:"is_pinned" json:"is_pinned"`
}

// MembershipSettingsPatch updates a member's own preferences; nil fields are
// left untouched.
type MembershipSettingsPatch struct {
	NotificationsEnabled *bool
	IsMuted              *bool
	IsPinned             *bool
}
