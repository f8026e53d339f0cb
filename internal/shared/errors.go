package shared

import "errors"

// Stable, client-visible error codes for the access-control core. Handlers
// map these onto HTTP statuses; services return them unwrapped so callers
// can branch with errors.Is.
var (
	// ErrNotFound indicates the resource does not exist, or sits outside
	// the caller's visibility scope. Out-of-scope objects are deliberately
	// indistinguishable from missing ones.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthenticationRequired indicates a missing or malformed credential.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrTokenExpired indicates a token past its expiry at validation time.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenBlacklisted indicates a revoked refresh token.
	ErrTokenBlacklisted = errors.New("token blacklisted")
	// ErrTokenReuseDetected indicates a refresh token presented after it was
	// already rotated. Treated as suspected theft.
	ErrTokenReuseDetected = errors.New("token reuse detected")
	// ErrPrincipalDisabled indicates the account behind a token was disabled.
	ErrPrincipalDisabled = errors.New("principal disabled")
	// ErrPermissionDenied indicates the caller is authenticated but the
	// policy rejected the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicate indicates a uniqueness conflict (e.g. username taken).
	ErrDuplicate = errors.New("duplicate entry")
)
