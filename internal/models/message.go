package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MessageType classifies the payload of a group message.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

// Attachment is a reference to an externally stored file. The core never
// transports file bytes.
type Attachment struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Attachments is stored as a JSONB column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, a)
	case string:
		return json.Unmarshal([]byte(data), a)
	}
	return errors.New("attachments: unsupported scan source")
}

// Message is one entry in a group's ordered log. Position defines the total
// order within the group; a deleted message keeps its position and withholds
// its content.
type Message struct {
	ID          int64         `db:"id" json:"id"`
	GroupID     int64         `db:"group_id" json:"group_id"`
	SenderID    int64         `db:"sender_id" json:"sender_id"`
	Content     string        `db:"content" json:"content"`
	MessageType MessageType   `db:"message_type" json:"message_type"`
	ReplyTo     sql.NullInt64 `db:"reply_to" json:"reply_to,omitempty"`
	Attachments Attachments   `db:"attachments" json:"attachments"`
	Position    int64         `db:"position" json:"position"`
	Edited      bool          `db:"edited" json:"edited"`
	EditedAt    sql.NullTime  `db:"edited_at" json:"edited_at,omitempty"`
	Deleted     bool          `db:"deleted" json:"deleted"`
	DeletedAt   sql.NullTime  `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// Redact withholds the content of a tombstoned message before it leaves the
// core.
func (m *Message) Redact() {
	if m.Deleted {
		m.Content = ""
		m.Attachments = nil
		m.ReplyTo = sql.NullInt64{}
	}
}

// MessageDraft is the caller-supplied shape for sending a message.
type MessageDraft struct {
	Content     string
	MessageType MessageType
	ReplyTo     *int64
	Attachments Attachments
}

// MessageWithReactions decorates a message with its reaction tallies for
// query responses.
type MessageWithReactions struct {
	Message
	Reactions []ReactionCount `json:"reactions"`
}

// MessagePage is one page of a newest-first message listing.
type MessagePage struct {
	Messages   []MessageWithReactions `json:"messages"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}
