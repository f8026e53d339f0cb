package authz

// ScopeKind enumerates the visibility classes a collection query can run
// under.
type ScopeKind int

const (
	// ScopeNone matches nothing. Anonymous callers and authenticated users
	// without a profile see an empty set.
	ScopeNone ScopeKind = iota
	// ScopeAll matches everything; administrators are unrestricted.
	ScopeAll
	// ScopeLecturer matches rows reachable from the lecturer's owned groups.
	ScopeLecturer
	// ScopeStudent matches rows reachable from the student's enrollments.
	ScopeStudent
)

// Scope is the row-level visibility predicate derived from an auth
// context. It is storage-agnostic: the persistence layer renders it into
// the query itself at construction time, so out-of-scope rows are never
// fetched and their existence never leaks. A by-id fetch that the scope
// excludes must surface as NotFound, not PermissionDenied.
type Scope struct {
	kind        ScopeKind
	principalID int64
}

// BuildScope derives the visibility scope for the given auth context.
func BuildScope(ctx AuthContext) Scope {
	switch ctx.Role {
	case RoleAdministrator:
		return Scope{kind: ScopeAll}
	case RoleLecturer:
		return Scope{kind: ScopeLecturer, principalID: ctx.PrincipalID}
	case RoleStudent:
		return Scope{kind: ScopeStudent, principalID: ctx.PrincipalID}
	default:
		return Scope{kind: ScopeNone}
	}
}

// Kind returns the scope class.
func (s Scope) Kind() ScopeKind { return s.kind }

// PrincipalID returns the lecturer or student the scope is anchored to.
// Zero for ScopeAll and ScopeNone.
func (s Scope) PrincipalID() int64 { return s.principalID }

// Unrestricted reports whether the scope matches every row.
func (s Scope) Unrestricted() bool { return s.kind == ScopeAll }

// Empty reports whether the scope can never match a row.
func (s Scope) Empty() bool { return s.kind == ScopeNone }
