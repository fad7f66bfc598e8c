package models

// GroupEvent is emitted over websocket connections for group rooms.
type GroupEvent struct {
	Type       string      `json:"type"`
	Message    *Message    `json:"message,omitempty"`
	MessageID  int64       `json:"message_id,omitempty"`
	MemberID   int64       `json:"member_id,omitempty"`
	Emoji      string      `json:"emoji,omitempty"`
	Added      bool        `json:"added,omitempty"`
	Membership *Membership `json:"membership,omitempty"`
}

// Websocket event types.
const (
	EventMessage       = "message"
	EventMessageEdited = "message_edited"
	EventDeleteForAll  = "delete_for_all"
	EventReaction      = "reaction"
	EventMemberJoined  = "member_joined"
	EventMemberLeft    = "member_left"
	EventRoleChanged   = "role_changed"
)
