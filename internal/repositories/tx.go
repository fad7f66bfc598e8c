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

const groupColumns = `id, name, description, group_type, is_private, auto_join,
	allow_member_invites, allow_file_sharing, max_members, class_id,
	last_position, is_active, deleted_at, created_at, updated_at`

const membershipColumns = `group_id, member_id, role, joined_at, last_read_at,
	notifications_enabled, is_muted, is_pinned`

// inTx runs fn inside a transaction with rollback on error.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// lockGroup takes the per-group serialization lock. Every mutation that
// touches membership counts, roles, or message order goes through here, so
// concurrent mutations on the same group queue up while different groups
// proceed in parallel.
func lockGroup(ctx context.Context, tx *sqlx.Tx, groupID int64) (models.Group, error) {
	var group models.Group
	err := tx.GetContext(ctx, &group,
		`SELECT `+groupColumns+` FROM groups WHERE id=$1 FOR UPDATE`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, apperr.NotFound(apperr.CodeGroupNotFound, "group not found")
	}
	if err != nil {
		return models.Group{}, err
	}
	if !group.IsActive {
		return models.Group{}, apperr.InvalidState(apperr.CodeGroupDeleted, "group has been deleted")
	}
	return group, nil
}

// membershipInTx loads the actor's membership inside the transaction,
// returning Unauthorized when the actor does not belong to the group.
func membershipInTx(ctx context.Context, tx *sqlx.Tx, groupID, memberID int64) (models.Membership, error) {
	var membership models.Membership
	err := tx.GetContext(ctx, &membership,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id=$1 AND member_id=$2`,
		groupID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, apperr.Unauthorized(apperr.CodeNotAMember, "not a member of this group")
	}
	return membership, err
}

func policyOf(group models.Group) authz.GroupPolicy {
	return authz.GroupPolicy{
		AllowMemberInvites: group.AllowMemberInvites,
		AllowFileSharing:   group.AllowFileSharing,
	}
}
