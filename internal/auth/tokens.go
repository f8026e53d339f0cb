package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/shared"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// DefaultAccessTTL is the access token lifetime.
	DefaultAccessTTL = 60 * time.Minute
	// DefaultRefreshTTL is the refresh token lifetime.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims carries the signed payload of both token types. The role is a
// snapshot taken at issue time; validation re-derives it from live state.
type Claims struct {
	PrincipalID int64      `json:"principal_id"`
	Role        authz.Role `json:"role,omitempty"`
	TokenType   string     `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 token pairs. Access and refresh
// tokens use separate secrets so one leaked key never compromises both.
// Expiry is always judged by the injected clock at parse time.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager constructs a TokenManager. Zero TTLs fall back to the
// defaults; a nil clock falls back to time.Now.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           now,
	}
}

// SignAccess issues a short-lived access token with the role snapshot.
func (m *TokenManager) SignAccess(principalID int64, role authz.Role) (string, error) {
	issued := m.now().UTC()
	claims := &Claims{
		PrincipalID: principalID,
		Role:        role,
		TokenType:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// SignRefresh issues a long-lived refresh token. The returned id is the
// jti that anchors the persisted state row.
func (m *TokenManager) SignRefresh(principalID int64) (token, id string, expiresAt time.Time, err error) {
	issued := m.now().UTC()
	id = uuid.NewString()
	expiresAt = issued.Add(m.refreshTTL)
	claims := &Claims{
		PrincipalID: principalID,
		TokenType:   tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	return token, id, expiresAt, err
}

// ParseAccess verifies signature and expiry of an access token.
func (m *TokenManager) ParseAccess(raw string) (*Claims, error) {
	return m.parse(raw, m.accessSecret, tokenTypeAccess, true)
}

// ParseRefresh verifies signature and expiry of a refresh token.
func (m *TokenManager) ParseRefresh(raw string) (*Claims, error) {
	return m.parse(raw, m.refreshSecret, tokenTypeRefresh, true)
}

// ParseRefreshLenient verifies the signature only. Logout must be able to
// blacklist a token that has already expired.
func (m *TokenManager) ParseRefreshLenient(raw string) (*Claims, error) {
	return m.parse(raw, m.refreshSecret, tokenTypeRefresh, false)
}

func (m *TokenManager) parse(raw string, secret []byte, wantType string, validateClaims bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.ErrTokenExpired
		}
		return nil, shared.ErrAuthenticationRequired
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.TokenType != wantType {
		return nil, shared.ErrAuthenticationRequired
	}
	return claims, nil
}
