package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"club-chat-service/internal/apperr"
	"club-chat-service/internal/authz"
	"club-chat-service/internal/models"
)

const messageColumns = `id, group_id, sender_id, content, message_type, reply_to,
	attachments, position, edited, edited_at, deleted, deleted_at, created_at`

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// MessageRepository owns the per-group ordered message log.
type MessageRepository interface {
	SendMessage(ctx context.Context, groupID, actorID int64, draft models.MessageDraft) (models.Message, error)
	EditMessage(ctx context.Context, messageID, actorID int64, newContent string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID, actorID int64) (models.Message, error)
	GetMessage(ctx context.Context, messageID int64) (models.Message, error)
	ListMessages(ctx context.Context, groupID, actorID int64, cursor string, limit int) (models.MessagePage, error)
	UnreadCount(ctx context.Context, groupID, memberID int64) (int64, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// SendMessage appends to the group log. The position comes from the group's
// counter, bumped under the group lock, so ordering is strict per group and
// the counter bump commits with the insert.
func (r *MessageRepo) SendMessage(ctx context.Context, groupID, actorID int64, draft models.MessageDraft) (models.Message, error) {
	if strings.TrimSpace(draft.Content) == "" && len(draft.Attachments) == 0 {
		return models.Message{}, apperr.Validation(apperr.CodeEmptyContent, "message content must not be empty")
	}
	if draft.MessageType == "" {
		draft.MessageType = models.MessageTypeText
	}
	if !draft.MessageType.Valid() {
		return models.Message{}, apperr.Validation(apperr.CodeBadSettings, "unknown message type")
	}

	var msg models.Message
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Decide(actor.Role, authz.ActionSendMessage, policyOf(group)); err != nil {
			return err
		}
		if len(draft.Attachments) > 0 {
			if err := authz.Decide(actor.Role, authz.ActionAttachFiles, policyOf(group)); err != nil {
				return err
			}
		}

		if draft.ReplyTo != nil {
			var parent models.Message
			err := tx.GetContext(ctx, &parent,
				`SELECT `+messageColumns+` FROM group_messages WHERE id=$1`, *draft.ReplyTo)
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound(apperr.CodeMessageNotFound, "reply target not found")
			}
			if err != nil {
				return err
			}
			if parent.GroupID != groupID {
				return apperr.InvalidState(apperr.CodeCrossGroupReply, "reply target belongs to another group")
			}
			if parent.Deleted {
				return apperr.InvalidState(apperr.CodeMessageDeleted, "cannot reply to a deleted message")
			}
		}

		var position int64
		if err := tx.GetContext(ctx, &position,
			`UPDATE groups SET last_position = last_position + 1, updated_at=NOW()
			 WHERE id=$1 RETURNING last_position`, groupID); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx,
			`INSERT INTO group_messages (group_id, sender_id, content, message_type, reply_to, attachments, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+messageColumns,
			groupID, actorID, draft.Content, draft.MessageType, draft.ReplyTo, draft.Attachments, position,
		).StructScan(&msg)
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// EditMessage rewrites content, sender only. A tombstoned message cannot be
// edited.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID, actorID int64, newContent string) (models.Message, error) {
	if strings.TrimSpace(newContent) == "" {
		return models.Message{}, apperr.Validation(apperr.CodeEmptyContent, "message content must not be empty")
	}

	var msg models.Message
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := r.messageInTx(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if _, err := lockGroup(ctx, tx, current.GroupID); err != nil {
			return err
		}
		// The first read only located the group; it ran before the lock, so a
		// concurrent deletion may have committed since. Re-read under the lock.
		current, err = r.messageInTx(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if err := authz.DecideEditMessage(actorID, current.SenderID); err != nil {
			return err
		}
		if current.Deleted {
			return apperr.InvalidState(apperr.CodeMessageDeleted, "message has been deleted")
		}

		return tx.QueryRowxContext(ctx,
			`UPDATE group_messages SET content=$2, edited=TRUE, edited_at=NOW() WHERE id=$1
			 RETURNING `+messageColumns,
			messageID, newContent).StructScan(&msg)
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteMessage tombstones a message: content is withheld, identity and
// position stay in the log. Permitted for the sender, admins, and the owner.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID, actorID int64) (models.Message, error) {
	var msg models.Message
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := r.messageInTx(ctx, tx, messageID)
		if err != nil {
			return err
		}
		group, err := lockGroup(ctx, tx, current.GroupID)
		if err != nil {
			return err
		}
		// Re-read under the lock: the pre-lock snapshot cannot see a deletion
		// that committed while we waited for the group row.
		current, err = r.messageInTx(ctx, tx, messageID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, current.GroupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.DecideDeleteMessage(actorID, current.SenderID, actor.Role, policyOf(group)); err != nil {
			return err
		}
		if current.Deleted {
			return apperr.InvalidState(apperr.CodeMessageDeleted, "message has already been deleted")
		}

		return tx.QueryRowxContext(ctx,
			`UPDATE group_messages SET deleted=TRUE, deleted_at=NOW() WHERE id=$1
			 RETURNING `+messageColumns,
			messageID).StructScan(&msg)
	})
	if err != nil {
		return models.Message{}, err
	}
	msg.Redact()
	return msg, nil
}

// GetMessage fetches a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM group_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, apperr.NotFound(apperr.CodeMessageNotFound, "message not found")
	}
	return msg, err
}

// ListMessages returns one newest-first page of the group log, tombstones
// included with their content withheld, reactions attached per message.
func (r *MessageRepo) ListMessages(ctx context.Context, groupID, actorID int64, cursor string, limit int) (models.MessagePage, error) {
	before, err := DecodeCursor(cursor)
	if err != nil {
		return models.MessagePage{}, err
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var member bool
	if err := r.db.GetContext(ctx, &member,
		`SELECT EXISTS(
			SELECT 1 FROM group_members gm
			INNER JOIN groups g ON g.id = gm.group_id
			WHERE gm.group_id=$1 AND gm.member_id=$2 AND g.is_active=TRUE)`,
		groupID, actorID); err != nil {
		return models.MessagePage{}, err
	}
	if !member {
		return models.MessagePage{}, apperr.Unauthorized(apperr.CodeNotAMember, "not a member of this group")
	}

	var msgs []models.Message
	if before > 0 {
		err = r.db.SelectContext(ctx, &msgs,
			`SELECT `+messageColumns+` FROM group_messages
			 WHERE group_id=$1 AND position < $2 ORDER BY position DESC LIMIT $3`,
			groupID, before, limit+1)
	} else {
		err = r.db.SelectContext(ctx, &msgs,
			`SELECT `+messageColumns+` FROM group_messages
			 WHERE group_id=$1 ORDER BY position DESC LIMIT $2`,
			groupID, limit+1)
	}
	if err != nil {
		return models.MessagePage{}, err
	}

	var nextCursor string
	if len(msgs) > limit {
		msgs = msgs[:limit]
		nextCursor = EncodeCursor(msgs[len(msgs)-1].Position)
	}

	reactionsByMessage, err := r.reactionsFor(ctx, msgs)
	if err != nil {
		return models.MessagePage{}, err
	}

	page := models.MessagePage{NextCursor: nextCursor}
	for _, m := range msgs {
		m.Redact()
		page.Messages = append(page.Messages, models.MessageWithReactions{
			Message:   m,
			Reactions: reactionsByMessage[m.ID],
		})
	}
	return page, nil
}

// UnreadCount counts messages newer than the member's read cursor.
func (r *MessageRepo) UnreadCount(ctx context.Context, groupID, memberID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM group_messages m
		 INNER JOIN group_members gm ON gm.group_id = m.group_id AND gm.member_id=$2
		 WHERE m.group_id=$1
		   AND m.sender_id <> $2
		   AND m.created_at > COALESCE(gm.last_read_at, 'epoch'::timestamptz)`,
		groupID, memberID)
	return count, err
}

func (r *MessageRepo) reactionsFor(ctx context.Context, msgs []models.Message) (map[int64][]models.ReactionCount, error) {
	result := make(map[int64][]models.ReactionCount, len(msgs))
	if len(msgs) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	var reactions []models.Reaction
	if err := r.db.SelectContext(ctx, &reactions,
		`SELECT message_id, member_id, emoji, created_at FROM message_reactions
		 WHERE message_id = ANY($1) ORDER BY created_at ASC`,
		pq.Array(ids)); err != nil {
		return nil, err
	}

	type key struct {
		messageID int64
		emoji     string
	}
	index := map[key]int{}
	for _, reaction := range reactions {
		k := key{reaction.MessageID, reaction.Emoji}
		idx, ok := index[k]
		if !ok {
			result[reaction.MessageID] = append(result[reaction.MessageID], models.ReactionCount{Emoji: reaction.Emoji})
			idx = len(result[reaction.MessageID]) - 1
			index[k] = idx
		}
		tally := &result[reaction.MessageID][idx]
		tally.Count++
		tally.MemberIDs = append(tally.MemberIDs, reaction.MemberID)
	}
	return result, nil
}

func (r *MessageRepo) messageInTx(ctx context.Context, tx *sqlx.Tx, messageID int64) (models.Message, error) {
	var msg models.Message
	err := tx.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM group_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, apperr.NotFound(apperr.CodeMessageNotFound, "message not found")
	}
	return msg, err
}
