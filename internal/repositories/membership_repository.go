package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"club-chat-service/internal/apperr"
	"club-chat-service/internal/authz"
	"club-chat-service/internal/models"
)

// MembershipRepository owns the (group, member) relationship: roles, capacity,
// personal settings, and the read cursor.
type MembershipRepository interface {
	AddMember(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error)
	JoinGroup(ctx context.Context, groupID, actorID int64) (models.Membership, error)
	RemoveMember(ctx context.Context, groupID, actorID, targetID int64) error
	PromoteToAdmin(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error)
	DemoteToMember(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error)
	TransferOwnership(ctx context.Context, groupID, actorID, targetID int64) error
	LeaveGroup(ctx context.Context, groupID, actorID int64) error
	UpdateSettings(ctx context.Context, groupID, actorID int64, patch models.MembershipSettingsPatch) (models.Membership, error)
	ListMembers(ctx context.Context, groupID, actorID int64) ([]models.Membership, error)
	GetMembership(ctx context.Context, groupID, memberID int64) (models.Membership, error)
	MarkRead(ctx context.Context, groupID, actorID int64, upto time.Time) (models.Membership, error)
}

// MembershipRepo is a sqlx implementation of MembershipRepository.
type MembershipRepo struct {
	db *sqlx.DB
}

// NewMembershipRepo constructs a MembershipRepo.
func NewMembershipRepo(db *sqlx.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

// insertMember enforces the duplicate and capacity invariants under the group
// lock, then inserts the membership.
func insertMember(ctx context.Context, tx *sqlx.Tx, group models.Group, targetID int64) (models.Membership, error) {
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND member_id=$2)`,
		group.ID, targetID); err != nil {
		return models.Membership{}, err
	}
	if exists {
		return models.Membership{}, apperr.Conflict(apperr.CodeDuplicateMember, "already a member of this group")
	}

	if group.MaxMembers.Valid {
		var count int64
		if err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM group_members WHERE group_id=$1`, group.ID); err != nil {
			return models.Membership{}, err
		}
		if count >= group.MaxMembers.Int64 {
			return models.Membership{}, apperr.Conflict(apperr.CodeGroupFull, "group is full")
		}
	}

	var membership models.Membership
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO group_members (group_id, member_id, role) VALUES ($1, $2, $3)
		 RETURNING `+membershipColumns,
		group.ID, targetID, authz.RoleMember).StructScan(&membership)
	return membership, err
}

// AddMember adds target on behalf of actor. Owner/admin may always add;
// plain members only when the group allows member invites.
func (r *MembershipRepo) AddMember(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error) {
	var membership models.Membership
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Decide(actor.Role, authz.ActionAddMember, policyOf(group)); err != nil {
			return err
		}
		membership, err = insertMember(ctx, tx, group, targetID)
		return err
	})
	if err != nil {
		return models.Membership{}, err
	}
	return membership, nil
}

// JoinGroup is the self-service path, open only for public auto-join groups.
func (r *MembershipRepo) JoinGroup(ctx context.Context, groupID, actorID int64) (models.Membership, error) {
	var membership models.Membership
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group.IsPrivate || !group.AutoJoin {
			return apperr.Unauthorized(apperr.CodeJoinNotAllowed, "group does not allow self-service joins")
		}
		membership, err = insertMember(ctx, tx, group, actorID)
		return err
	})
	if err != nil {
		return models.Membership{}, err
	}
	return membership, nil
}

// RemoveMember kicks target. The owner's membership is immune regardless of
// who asks.
func (r *MembershipRepo) RemoveMember(ctx context.Context, groupID, actorID, targetID int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		target, err := r.targetInTx(ctx, tx, groupID, targetID)
		if err != nil {
			return err
		}
		if err := authz.DecideRemoveMember(actor.Role, target.Role, policyOf(group)); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM group_members WHERE group_id=$1 AND member_id=$2`, groupID, targetID)
		return err
	})
}

// PromoteToAdmin raises target from member to admin, owner only.
func (r *MembershipRepo) PromoteToAdmin(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error) {
	return r.changeRole(ctx, groupID, actorID, targetID, authz.RoleAdmin)
}

// DemoteToMember lowers target from admin to member, owner only.
func (r *MembershipRepo) DemoteToMember(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error) {
	return r.changeRole(ctx, groupID, actorID, targetID, authz.RoleMember)
}

func (r *MembershipRepo) changeRole(ctx context.Context, groupID, actorID, targetID int64, to authz.Role) (models.Membership, error) {
	var membership models.Membership
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		target, err := r.targetInTx(ctx, tx, groupID, targetID)
		if err != nil {
			return err
		}
		if err := authz.DecideChangeRole(actor.Role, target.Role, to, policyOf(group)); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx,
			`UPDATE group_members SET role=$3 WHERE group_id=$1 AND member_id=$2
			 RETURNING `+membershipColumns,
			groupID, targetID, to).StructScan(&membership)
	})
	if err != nil {
		return models.Membership{}, err
	}
	return membership, nil
}

// TransferOwnership makes target the owner and demotes the old owner to
// admin, in one transaction. This is the only way the owner role is vacated.
func (r *MembershipRepo) TransferOwnership(ctx context.Context, groupID, actorID, targetID int64) error {
	if actorID == targetID {
		return apperr.Validation(apperr.CodeBadSettings, "cannot transfer ownership to yourself")
	}
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Decide(actor.Role, authz.ActionTransferOwnership, policyOf(group)); err != nil {
			return err
		}
		if _, err := r.targetInTx(ctx, tx, groupID, targetID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE group_members SET role=$3 WHERE group_id=$1 AND member_id=$2`,
			groupID, actorID, authz.RoleAdmin); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE group_members SET role=$3 WHERE group_id=$1 AND member_id=$2`,
			groupID, targetID, authz.RoleOwner)
		return err
	})
}

// LeaveGroup removes the actor's own membership. The owner must transfer
// ownership first.
func (r *MembershipRepo) LeaveGroup(ctx context.Context, groupID, actorID int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.DecideLeave(actor.Role); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM group_members WHERE group_id=$1 AND member_id=$2`, groupID, actorID)
		return err
	})
}

// UpdateSettings changes the actor's own preferences. Always permitted for an
// active membership, regardless of role.
func (r *MembershipRepo) UpdateSettings(ctx context.Context, groupID, actorID int64, patch models.MembershipSettingsPatch) (models.Membership, error) {
	membership, err := r.GetMembership(ctx, groupID, actorID)
	if err != nil {
		return models.Membership{}, err
	}

	if patch.NotificationsEnabled != nil {
		membership.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if patch.IsMuted != nil {
		membership.IsMuted = *patch.IsMuted
	}
	if patch.IsPinned != nil {
		membership.IsPinned = *patch.IsPinned
	}

	var updated models.Membership
	err = r.db.QueryRowxContext(ctx,
		`UPDATE group_members SET notifications_enabled=$3, is_muted=$4, is_pinned=$5
		 WHERE group_id=$1 AND member_id=$2
		 RETURNING `+membershipColumns,
		groupID, actorID, membership.NotificationsEnabled, membership.IsMuted, membership.IsPinned,
	).StructScan(&updated)
	if err != nil {
		return models.Membership{}, err
	}
	return updated, nil
}

// ListMembers returns the active roster, owner first.
func (r *MembershipRepo) ListMembers(ctx context.Context, groupID, actorID int64) ([]models.Membership, error) {
	if _, err := r.GetMembership(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	var members []models.Membership
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id=$1
		 ORDER BY CASE role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, joined_at ASC`,
		groupID)
	return members, err
}

// GetMembership loads one membership of an active group.
func (r *MembershipRepo) GetMembership(ctx context.Context, groupID, memberID int64) (models.Membership, error) {
	var membership models.Membership
	err := r.db.GetContext(ctx, &membership,
		`SELECT gm.group_id, gm.member_id, gm.role, gm.joined_at, gm.last_read_at,
			gm.notifications_enabled, gm.is_muted, gm.is_pinned
		 FROM group_members gm
		 INNER JOIN groups g ON g.id = gm.group_id
		 WHERE gm.group_id=$1 AND gm.member_id=$2 AND g.is_active=TRUE`,
		groupID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, apperr.Unauthorized(apperr.CodeNotAMember, "not a member of this group")
	}
	return membership, err
}

// MarkRead advances the read cursor to max(current, upto). The GREATEST
// update is commutative and idempotent, so this deliberately skips the
// per-group lock. A membership of a tombstoned group does not qualify.
func (r *MembershipRepo) MarkRead(ctx context.Context, groupID, actorID int64, upto time.Time) (models.Membership, error) {
	var membership models.Membership
	err := r.db.QueryRowxContext(ctx,
		`UPDATE group_members gm
		 SET last_read_at = GREATEST(COALESCE(gm.last_read_at, 'epoch'::timestamptz), $3)
		 FROM groups g
		 WHERE gm.group_id=$1 AND gm.member_id=$2 AND g.id = gm.group_id AND g.is_active=TRUE
		 RETURNING gm.group_id, gm.member_id, gm.role, gm.joined_at, gm.last_read_at,
			gm.notifications_enabled, gm.is_muted, gm.is_pinned`,
		groupID, actorID, upto).StructScan(&membership)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, apperr.Unauthorized(apperr.CodeNotAMember, "no active membership in this group")
	}
	if err != nil {
		return models.Membership{}, err
	}
	return membership, nil
}

func (r *MembershipRepo) targetInTx(ctx context.Context, tx *sqlx.Tx, groupID, targetID int64) (models.Membership, error) {
	var target models.Membership
	err := tx.GetContext(ctx, &target,
		`SELECT `+membershipColumns+` FROM group_members WHERE group_id=$1 AND member_id=$2`,
		groupID, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, apperr.NotFound(apperr.CodeMembershipNotFound, "target is not a member of this group")
	}
	return target, err
}
