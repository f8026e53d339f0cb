package auth

import "time"

// Principal represents an identity record. The enabled flag gates every
// token the principal holds, stateless access tokens included.
type Principal struct {
	ID                  int64
	Username            string
	PasswordHash        string
	Enabled             bool
	IsAdministrator     bool
	LastAuthenticatedAt time.Time
	CreatedAt           time.Time
}

// TokenState is the lifecycle state of a refresh token. Issued is the only
// live state; the other three are terminal and never transition back.
type TokenState string

const (
	TokenStateIssued      TokenState = "issued"
	TokenStateRotated     TokenState = "rotated"
	TokenStateBlacklisted TokenState = "blacklisted"
	TokenStateExpired     TokenState = "expired"
)

// Terminal reports whether the state permits no further transitions.
func (s TokenState) Terminal() bool {
	return s != TokenStateIssued
}

// RefreshToken is the persisted half of a credential pair. The client
// holds a signed token whose jti matches ID; validity is decided against
// this row, never against the signature alone.
type RefreshToken struct {
	ID          string
	PrincipalID int64
	IssuedAt    time.Time
	ExpiresAt   time.Time
	State       TokenState
}

// RevocationRecord marks a refresh token permanently invalid. Persisted in
// Postgres and mirrored into Redis for O(1) membership checks.
type RevocationRecord struct {
	TokenID   string
	RevokedAt time.Time
}

// TokenPair bundles the signed credentials returned to a client.
type TokenPair struct {
	Access  string
	Refresh string
}
