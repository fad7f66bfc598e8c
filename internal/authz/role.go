package authz

// Role is the authorization level of a membership within a group.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// AtLeast reports whether r grants at least the level of other.
func (r Role) AtLeast(other Role) bool {
	return rank(r) >= rank(other)
}

func rank(r Role) int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	}
	return 0
}

// roleTransitions is the closed transition table. Owner is absent on purpose:
// the owner role is vacated only through TransferOwnership, never through
// promote/demote.
var roleTransitions = map[Role]map[Role]bool{
	RoleMember: {RoleAdmin: true},
	RoleAdmin:  {RoleMember: true},
}

// CanTransition reports whether an owner-driven role change from one role to
// another is legal.
func CanTransition(from, to Role) bool {
	return roleTransitions[from][to]
}
