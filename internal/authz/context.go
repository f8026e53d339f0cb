package authz

import "context"

// AuthContext is the immutable per-request identity bundle. It is built
// once, after token validation, and passed explicitly to every downstream
// check; there is no other per-request auth state.
type AuthContext struct {
	Role        Role
	PrincipalID int64
}

// Anonymous returns the context used for unauthenticated requests.
func Anonymous() AuthContext {
	return AuthContext{Role: RoleAnonymous}
}

// IsAuthenticated reports whether the request carries a validated identity.
func (c AuthContext) IsAuthenticated() bool {
	return c.Role != RoleAnonymous
}

// IsAdmin reports whether the principal is an administrator.
func (c AuthContext) IsAdmin() bool {
	return c.Role == RoleAdministrator
}

// IsLecturer reports whether the principal has a lecturer profile.
func (c AuthContext) IsLecturer() bool {
	return c.Role == RoleLecturer
}

// IsStudent reports whether the principal has a student profile.
func (c AuthContext) IsStudent() bool {
	return c.Role == RoleStudent
}

type authContextKey struct{}

// ContextWith stores the auth context in ctx.
func ContextWith(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// FromContext extracts the auth context, falling back to anonymous when
// the middleware never ran.
func FromContext(ctx context.Context) AuthContext {
	if ac, ok := ctx.Value(authContextKey{}).(AuthContext); ok {
		return ac
	}
	return Anonymous()
}
