// Package authz holds the pure authorization core: role derivation,
// per-request auth contexts, policy decisions and row-level visibility
// scopes. Nothing in this package performs I/O; callers supply the facts.
package authz

// Role is the derived access class of a principal. It is recomputed on
// every token validation and never persisted.
type Role string

const (
	RoleAdministrator     Role = "administrator"
	RoleLecturer          Role = "lecturer"
	RoleStudent           Role = "student"
	RoleAuthenticatedUser Role = "user"
	RoleAnonymous         Role = "anonymous"
)

// PrincipalFacts captures the identity state RoleResolver needs: the
// enabled/admin flags from the principal row plus the two O(1)
// profile-existence lookups.
type PrincipalFacts struct {
	Enabled            bool
	IsAdministrator    bool
	HasLecturerProfile bool
	HasStudentProfile  bool
}

// ResolveRole derives exactly one role from principal state. First match
// wins: administrator dominates, then lecturer profile, then student
// profile, then plain authenticated user. A missing or disabled principal
// is anonymous regardless of its other flags.
func ResolveRole(authenticated bool, facts PrincipalFacts) Role {
	if !authenticated || !facts.Enabled {
		return RoleAnonymous
	}
	switch {
	case facts.IsAdministrator:
		return RoleAdministrator
	case facts.HasLecturerProfile:
		return RoleLecturer
	case facts.HasStudentProfile:
		return RoleStudent
	default:
		return RoleAuthenticatedUser
	}
}
