package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"club-chat-service/internal/apperr"
	"club-chat-service/internal/authz"
	"club-chat-service/internal/models"
)

// ReactionRepository owns the (message, member, emoji) reaction set.
type ReactionRepository interface {
	ToggleReaction(ctx context.Context, messageID, actorID int64, emoji string) (models.Reaction, bool, error)
	ListReactions(ctx context.Context, messageID int64) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// ToggleReaction flips the (actor, emoji) pair on a message: present ->
// removed, absent -> added. The triple primary key makes duplicates
// structurally impossible, so the toggle needs no group-level lock; locking
// the message row instead serializes the toggle against a concurrent
// tombstone, which also takes that row lock. The second return value reports
// whether the reaction was added.
func (r *ReactionRepo) ToggleReaction(ctx context.Context, messageID, actorID int64, emoji string) (models.Reaction, bool, error) {
	if emoji == "" {
		return models.Reaction{}, false, apperr.Validation(apperr.CodeBadSettings, "emoji must not be empty")
	}

	var reaction models.Reaction
	var added bool
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var msg models.Message
		err := tx.GetContext(ctx, &msg,
			`SELECT `+messageColumns+` FROM group_messages WHERE id=$1 FOR UPDATE`, messageID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound(apperr.CodeMessageNotFound, "message not found")
		}
		if err != nil {
			return err
		}
		if msg.Deleted {
			return apperr.InvalidState(apperr.CodeMessageDeleted, "cannot react to a deleted message")
		}

		var group models.Group
		err = tx.GetContext(ctx, &group,
			`SELECT `+groupColumns+` FROM groups WHERE id=$1`, msg.GroupID)
		if err != nil {
			return err
		}
		if !group.IsActive {
			return apperr.InvalidState(apperr.CodeGroupDeleted, "group has been deleted")
		}
		actor, err := membershipInTx(ctx, tx, msg.GroupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Decide(actor.Role, authz.ActionToggleReaction, policyOf(group)); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM message_reactions WHERE message_id=$1 AND member_id=$2 AND emoji=$3`,
			messageID, actorID, emoji)
		if err != nil {
			return err
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if removed > 0 {
			reaction = models.Reaction{MessageID: messageID, MemberID: actorID, Emoji: emoji}
			added = false
			return nil
		}

		added = true
		return tx.QueryRowxContext(ctx,
			`INSERT INTO message_reactions (message_id, member_id, emoji) VALUES ($1, $2, $3)
			 RETURNING message_id, member_id, emoji, created_at`,
			messageID, actorID, emoji).StructScan(&reaction)
	})
	if err != nil {
		return models.Reaction{}, false, err
	}
	return reaction, added, nil
}

// ListReactions returns all reactions on a message in arrival order.
func (r *ReactionRepo) ListReactions(ctx context.Context, messageID int64) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT message_id, member_id, emoji, created_at FROM message_reactions
		 WHERE message_id=$1 ORDER BY created_at ASC`, messageID)
	return reactions, err
}
