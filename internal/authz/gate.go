// Package authz is the single source of truth for chat permissions. Every
// repository mutation consults it; no handler or repository duplicates a
// permission rule.
package authz

import "club-chat-service/internal/apperr"

// Action identifies a gated chat mutation.
type Action string

const (
	ActionUpdateGroup        = Action("update_group")
	ActionDeleteGroup        = Action("delete_group")
	ActionAddMember          = Action("add_member")
	ActionRemoveMember       = Action("remove_member")
	ActionChangeRole         = Action("change_role")
	ActionTransferOwnership  = Action("transfer_ownership")
	ActionSendMessage        = Action("send_message")
	ActionAttachFiles        = Action("attach_files")
	ActionDeleteAnyMessage   = Action("delete_any_message")
	ActionToggleReaction     = Action("toggle_reaction")
	ActionUpdateOwnSettings  = Action("update_own_settings")
	ActionReadGroup          = Action("read_group")
)

// GroupPolicy carries the group settings the gate needs for a decision.
type GroupPolicy struct {
	AllowMemberInvites bool
	AllowFileSharing   bool
}

// minimumRole holds the settings-independent floor per action.
var minimumRole = map[Action]Role{
	ActionUpdateGroup:       RoleAdmin,
	ActionDeleteGroup:       RoleOwner,
	ActionAddMember:         RoleAdmin,
	ActionRemoveMember:      RoleAdmin,
	ActionChangeRole:        RoleOwner,
	ActionTransferOwnership: RoleOwner,
	ActionSendMessage:       RoleMember,
	ActionAttachFiles:       RoleMember,
	ActionDeleteAnyMessage:  RoleAdmin,
	ActionToggleReaction:    RoleMember,
	ActionUpdateOwnSettings: RoleMember,
	ActionReadGroup:         RoleMember,
}

// Decide is the pure authorization function: (role, action, group policy) ->
// allow or a typed Unauthorized error.
func Decide(role Role, action Action, policy GroupPolicy) *apperr.Error {
	if !role.Valid() {
		return apperr.Unauthorized(apperr.CodeNotAMember, "no active membership")
	}

	switch action {
	case ActionAddMember:
		if policy.AllowMemberInvites {
			return nil
		}
	case ActionAttachFiles:
		if !policy.AllowFileSharing {
			return apperr.Unauthorized(apperr.CodeForbidden, "file sharing is disabled for this group")
		}
		return nil
	}

	floor, ok := minimumRole[action]
	if !ok || !role.AtLeast(floor) {
		return apperr.Unauthorized(apperr.CodeForbidden, "role "+string(role)+" may not "+string(action))
	}
	return nil
}

// DecideRemoveMember layers ownership immunity on top of Decide: the owner's
// membership can never be removed, regardless of who asks.
func DecideRemoveMember(actorRole, targetRole Role, policy GroupPolicy) *apperr.Error {
	if targetRole == RoleOwner {
		return apperr.Unauthorized(apperr.CodeOwnerImmune, "the owner cannot be removed")
	}
	return Decide(actorRole, ActionRemoveMember, policy)
}

// DecideChangeRole validates an owner-driven promote/demote against the
// transition table.
func DecideChangeRole(actorRole, targetFrom, targetTo Role, policy GroupPolicy) *apperr.Error {
	if err := Decide(actorRole, ActionChangeRole, policy); err != nil {
		return err
	}
	if !CanTransition(targetFrom, targetTo) {
		return apperr.InvalidState(apperr.CodeInvalidTransition,
			"cannot change role from "+string(targetFrom)+" to "+string(targetTo))
	}
	return nil
}

// DecideEditMessage enforces sender-only editing. Admins and the owner are
// deliberately not exempt.
func DecideEditMessage(actorID, senderID int64) *apperr.Error {
	if actorID != senderID {
		return apperr.Unauthorized(apperr.CodeSenderOnly, "only the sender may edit a message")
	}
	return nil
}

// DecideDeleteMessage allows the sender, admins, and the owner to tombstone a
// message.
func DecideDeleteMessage(actorID, senderID int64, actorRole Role, policy GroupPolicy) *apperr.Error {
	if actorID == senderID {
		return nil
	}
	return Decide(actorRole, ActionDeleteAnyMessage, policy)
}

// DecideLeave rejects an owner leaving before transferring ownership.
func DecideLeave(actorRole Role) *apperr.Error {
	if actorRole == RoleOwner {
		return apperr.Conflict(apperr.CodeOwnerCannotLeave, "transfer ownership before leaving the group")
	}
	return nil
}
