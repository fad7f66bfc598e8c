package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	require.True(t, RoleMember.Valid())
	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleOwner.Valid())
	require.False(t, Role("").Valid())
	require.False(t, Role("superadmin").Valid())
}

func TestRoleAtLeast(t *testing.T) {
	require.True(t, RoleOwner.AtLeast(RoleAdmin))
	require.True(t, RoleAdmin.AtLeast(RoleMember))
	require.True(t, RoleMember.AtLeast(RoleMember))
	require.False(t, RoleMember.AtLeast(RoleAdmin))
	require.False(t, RoleAdmin.AtLeast(RoleOwner))
	require.False(t, Role("ghost").AtLeast(RoleMember))
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(RoleMember, RoleAdmin))
	require.True(t, CanTransition(RoleAdmin, RoleMember))

	// owner is only vacated via transfer, never via promote/demote
	require.False(t, CanTransition(RoleOwner, RoleAdmin))
	require.False(t, CanTransition(RoleAdmin, RoleOwner))
	require.False(t, CanTransition(RoleMember, RoleOwner))
	require.False(t, CanTransition(RoleMember, RoleMember))
}
