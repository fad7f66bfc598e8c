package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"club-chat-service/internal/apperr"
	"club-chat-service/internal/authz"
	"club-chat-service/internal/models"
)

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, actorID int64, spec models.GroupSpec) (models.Group, error)
	UpdateGroup(ctx context.Context, groupID, actorID int64, patch models.GroupPatch) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID, actorID int64) error
	GetGroup(ctx context.Context, groupID int64) (models.Group, error)
	ListGroupsForMember(ctx context.Context, memberID int64) ([]models.GroupSummary, error)
	IsMember(ctx context.Context, groupID, memberID int64) (bool, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

func validateSpec(spec models.GroupSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return apperr.Validation(apperr.CodeEmptyName, "group name must not be empty")
	}
	if !spec.GroupType.Valid() {
		return apperr.Validation(apperr.CodeBadSettings, "unknown group type")
	}
	if spec.MaxMembers != nil && *spec.MaxMembers < 1 {
		return apperr.Validation(apperr.CodeBadSettings, "max_members must be positive")
	}
	return nil
}

// CreateGroup creates the group and the creator's owner membership atomically.
func (r *GroupRepo) CreateGroup(ctx context.Context, actorID int64, spec models.GroupSpec) (models.Group, error) {
	if err := validateSpec(spec); err != nil {
		return models.Group{}, err
	}

	var group models.Group
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx,
			`INSERT INTO groups (name, description, group_type, is_private, auto_join,
				allow_member_invites, allow_file_sharing, max_members, class_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+groupColumns,
			spec.Name, spec.Description, spec.GroupType, spec.IsPrivate, spec.AutoJoin,
			spec.AllowMemberInvites, spec.AllowFileSharing, spec.MaxMembers, spec.ClassID,
		).StructScan(&group); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, member_id, role) VALUES ($1, $2, $3)`,
			group.ID, actorID, authz.RoleOwner)
		return err
	})
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// UpdateGroup applies a patch for owner/admin actors. The group type is
// immutable after creation, so the patch cannot carry one.
func (r *GroupRepo) UpdateGroup(ctx context.Context, groupID, actorID int64, patch models.GroupPatch) (models.Group, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Group{}, apperr.Validation(apperr.CodeEmptyName, "group name must not be empty")
	}
	if patch.MaxMembers != nil && *patch.MaxMembers < 1 {
		return models.Group{}, apperr.Validation(apperr.CodeBadSettings, "max_members must be positive")
	}

	var group models.Group
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Decide(actor.Role, authz.ActionUpdateGroup, policyOf(current)); err != nil {
			return err
		}

		// The cap may never drop below the roster; the group lock keeps the
		// count stable until commit.
		if patch.MaxMembers != nil {
			var count int64
			if err := tx.GetContext(ctx, &count,
				`SELECT COUNT(*) FROM group_members WHERE group_id=$1`, groupID); err != nil {
				return err
			}
			if *patch.MaxMembers < count {
				return apperr.Conflict(apperr.CodeGroupFull, "max_members is below the current member count")
			}
		}

		if patch.Name != nil {
			current.Name = *patch.Name
		}
		if patch.Description != nil {
			current.Description = *patch.Description
		}
		if patch.IsPrivate != nil {
			current.IsPrivate = *patch.IsPrivate
		}
		if patch.AutoJoin != nil {
			current.AutoJoin = *patch.AutoJoin
		}
		if patch.AllowMemberInvites != nil {
			current.AllowMemberInvites = *patch.AllowMemberInvites
		}
		if patch.AllowFileSharing != nil {
			current.AllowFileSharing = *patch.AllowFileSharing
		}
		if patch.MaxMembers != nil {
			current.MaxMembers = sql.NullInt64{Int64: *patch.MaxMembers, Valid: true}
		}

		return tx.QueryRowxContext(ctx,
			`UPDATE groups SET name=$2, description=$3, is_private=$4, auto_join=$5,
				allow_member_invites=$6, allow_file_sharing=$7, max_members=$8, updated_at=NOW()
			 WHERE id=$1
			 RETURNING `+groupColumns,
			groupID, current.Name, current.Description, current.IsPrivate, current.AutoJoin,
			current.AllowMemberInvites, current.AllowFileSharing, current.MaxMembers,
		).StructScan(&group)
	})
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// DeleteGroup tombstones the group together with its memberships and
// messages in one transaction. Nothing is physically removed.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID, actorID int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		group, err := lockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		actor, err := membershipInTx(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Decide(actor.Role, authz.ActionDeleteGroup, policyOf(group)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE groups SET is_active=FALSE, deleted_at=NOW(), updated_at=NOW() WHERE id=$1`,
			groupID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE group_messages SET deleted=TRUE, deleted_at=NOW() WHERE group_id=$1 AND deleted=FALSE`,
			groupID)
		return err
	})
}

// GetGroup fetches a single active group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int64) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT `+groupColumns+` FROM groups WHERE id=$1 AND is_active=TRUE`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, apperr.NotFound(apperr.CodeGroupNotFound, "group not found")
	}
	return group, err
}

// ListGroupsForMember returns the caller's active groups, pinned first and
// most recently updated next. Unread counts are filled in by the read
// tracker, not here.
func (r *GroupRepo) ListGroupsForMember(ctx context.Context, memberID int64) ([]models.GroupSummary, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT g.id, g.name, g.description, g.group_type, g.is_private, g.auto_join,
			g.allow_member_invites, g.allow_file_sharing, g.max_members, g.class_id,
			g.last_position, g.is_active, g.deleted_at, g.created_at, g.updated_at,
			gm.group_id AS m_group_id, gm.member_id AS m_member_id, gm.role AS m_role,
			gm.joined_at AS m_joined_at, gm.last_read_at AS m_last_read_at,
			gm.notifications_enabled AS m_notifications_enabled,
			gm.is_muted AS m_is_muted, gm.is_pinned AS m_is_pinned
		 FROM groups g
		 INNER JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.member_id=$1 AND g.is_active=TRUE
		 ORDER BY gm.is_pinned DESC, g.updated_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.GroupSummary
	for rows.Next() {
		var row struct {
			models.Group
			MGroupID              int64          `db:"m_group_id"`
			MMemberID             int64          `db:"m_member_id"`
			MRole                 authz.Role     `db:"m_role"`
			MJoinedAt             sql.NullTime   `db:"m_joined_at"`
			MLastReadAt           sql.NullTime   `db:"m_last_read_at"`
			MNotificationsEnabled bool           `db:"m_notifications_enabled"`
			MIsMuted              bool           `db:"m_is_muted"`
			MIsPinned             bool           `db:"m_is_pinned"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		summaries = append(summaries, models.GroupSummary{
			Group: row.Group,
			Membership: models.Membership{
				GroupID:              row.MGroupID,
				MemberID:             row.MMemberID,
				Role:                 row.MRole,
				JoinedAt:             row.MJoinedAt.Time,
				LastReadAt:           row.MLastReadAt,
				NotificationsEnabled: row.MNotificationsEnabled,
				IsMuted:              row.MIsMuted,
				IsPinned:             row.MIsPinned,
			},
		})
	}
	return summaries, rows.Err()
}

// IsMember checks active membership, used by the websocket handshake.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, memberID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
			SELECT 1 FROM group_members gm
			INNER JOIN groups g ON g.id = gm.group_id
			WHERE gm.group_id=$1 AND gm.member_id=$2 AND g.is_active=TRUE)`,
		groupID, memberID)
	return exists, err
}
