package models

import (
	"database/sql"
	"time"
)

// GroupType classifies how a group was formed. It is immutable after creation.
type GroupType string

const (
	GroupTypeClub        GroupType = "club"
	GroupTypeSubgroup    GroupType = "subgroup"
	GroupTypeCompetition GroupType = "competition"
	GroupTypeClass       GroupType = "class"
)

// Valid reports whether t is a known group type.
func (t GroupType) Valid() bool {
	switch t {
	case GroupTypeClub, GroupTypeSubgroup, GroupTypeCompetition, GroupTypeClass:
		return true
	}
	return false
}

// Group is a chat container with membership and settings.
type Group struct {
	ID                 int64         `db:"id" json:"id"`
	Name               string        `db:"name" json:"name"`
	Description        string        `db:"description" json:"description"`
	GroupType          GroupType     `db:"group_type" json:"group_type"`
	IsPrivate          bool          `db:"is_private" json:"is_private"`
	AutoJoin           bool          `db:"auto_join" json:"auto_join"`
	AllowMemberInvites bool          `db:"allow_member_invites" json:"allow_member_invites"`
	AllowFileSharing   bool          `db:"allow_file_sharing" json:"allow_file_sharing"`
	MaxMembers         sql.NullInt64 `db:"max_members" json:"max_members,omitempty"`
	ClassID            sql.NullInt64 `db:"class_id" json:"class_id,omitempty"`
	LastPosition       int64         `db:"last_position" json:"-"`
	IsActive           bool          `db:"is_active" json:"is_active"`
	DeletedAt          sql.NullTime  `db:"deleted_at" json:"-"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// GroupSpec is the caller-supplied shape for creating a group.
type GroupSpec struct {
	Name               string
	Description        string
	GroupType          GroupType
	IsPrivate          bool
	AutoJoin           bool
	AllowMemberInvites bool
	AllowFileSharing   bool
	MaxMembers         *int64
	ClassID            *int64
}

// GroupPatch carries optional updates; nil fields are left untouched.
// GroupType is absent on purpose: the type is immutable after creation.
type GroupPatch struct {
	Name               *string
	Description        *string
	IsPrivate          *bool
	AutoJoin           *bool
	AllowMemberInvites *bool
	AllowFileSharing   *bool
	MaxMembers         *int64
}

// GroupSummary is the per-member view returned by group listings: the group
// plus the caller's own membership state and derived unread count.
type GroupSummary struct {
	Group
	Membership  Membership `json:"membership"`
	UnreadCount int64      `json:"unread_count"`
}
