package models

import "time"

// Reaction is one (message, member, emoji) endorsement. The primary key is
// the full triple, so duplicates are impossible by construction.
type Reaction struct {
	MessageID int64     `db:"message_id" json:"message_id"`
	MemberID  int64     `db:"member_id" json:"member_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReactionCount is the per-emoji tally attached to message listings.
type ReactionCount struct {
	Emoji     string  `db:"emoji" json:"emoji"`
	Count     int64   `db:"count" json:"count"`
	MemberIDs []int64 `json:"member_ids"`
}
