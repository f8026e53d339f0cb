package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// SecurityAlerter receives suspected-theft notifications. Implemented by
// the jobs client; kept as an interface so the service never depends on
// the queue.
type SecurityAlerter interface {
	EnqueueSecurityAlert(ctx context.Context, principalID int64, detail string) error
}

// SecurityMetrics counts security-relevant events.
type SecurityMetrics interface {
	TokenReuse()
}

// ServiceConfig collects the optional collaborators of the token service.
type ServiceConfig struct {
	Revocations *RevocationList
	Alerts      SecurityAlerter
	Metrics     SecurityMetrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service owns the credential lifecycle: issuing, validating, rotating and
// revoking token pairs. Decision logic stays in authz; the one piece of
// shared mutable state here is refresh-token state, guarded by the
// repository's compare-and-set transition.
type Service struct {
	repo        Repository
	tokens      *TokenManager
	revocations *RevocationList
	alerts      SecurityAlerter
	metrics     SecurityMetrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenManager, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        repo,
		tokens:      tokens,
		revocations: cfg.Revocations,
		alerts:      cfg.Alerts,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		now:         now,
	}
}

// Authenticate validates username/password credentials and stamps the
// login time. Lookup failures and bad passwords are indistinguishable to
// the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	principal, err := s.repo.FindPrincipalByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !principal.Enabled {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.repo.TouchLastAuthenticated(ctx, principal.ID, s.now().UTC()); err != nil {
		s.warn("touch last authenticated", err)
	}
	return principal, nil
}

// Register creates a new enabled principal and signs it in.
func (s *Service) Register(ctx context.Context, username, password string) (*Principal, TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, TokenPair{}, err
	}
	principal, err := s.repo.CreatePrincipal(ctx, username, string(hash))
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.Issue(ctx, principal)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return principal, pair, nil
}

// Issue creates a fresh access/refresh pair for the principal. The access
// token carries a role snapshot; the refresh token is anchored to a
// persisted state row.
func (s *Service) Issue(ctx context.Context, principal *Principal) (TokenPair, error) {
	role, err := s.resolveRole(ctx, principal)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := s.tokens.SignAccess(principal.ID, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, id, expiresAt, err := s.tokens.SignRefresh(principal.ID)
	if err != nil {
		return TokenPair{}, err
	}
	row := RefreshToken{
		ID:          id,
		PrincipalID: principal.ID,
		IssuedAt:    s.now().UTC(),
		ExpiresAt:   expiresAt,
		State:       TokenStateIssued,
	}
	if err := s.repo.CreateRefreshToken(ctx, row); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token and returns a brand-new pair. The
// issued->rotated transition is a single compare-and-set: under concurrent
// presentation of the same token exactly one caller wins, every other
// caller observes reuse. Reuse triggers the mandatory theft response of
// blacklisting all live refresh tokens of the principal.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(rawRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if s.revocations != nil {
		revoked, err := s.revocations.Contains(ctx, claims.ID)
		if err != nil {
			s.warn("revocation mirror lookup", err)
		} else if revoked {
			return TokenPair{}, shared.ErrTokenBlacklisted
		}
	}

	now := s.now().UTC()
	won, err := s.repo.RotateRefreshToken(ctx, claims.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	if !won {
		return TokenPair{}, s.classifyRotationLoss(ctx, claims.PrincipalID, claims.ID, now)
	}

	principal, err := s.repo.GetPrincipal(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return TokenPair{}, shared.ErrAuthenticationRequired
		}
		return TokenPair{}, err
	}
	if !principal.Enabled {
		return TokenPair{}, shared.ErrPrincipalDisabled
	}
	return s.Issue(ctx, principal)
}

// classifyRotationLoss decides why the compare-and-set did not transition
// and applies the reuse lockout when the token was already rotated.
func (s *Service) classifyRotationLoss(ctx context.Context, principalID int64, tokenID string, now time.Time) error {
	row, err := s.repo.GetRefreshToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrAuthenticationRequired
		}
		return err
	}
	switch row.State {
	case TokenStateBlacklisted:
		return shared.ErrTokenBlacklisted
	case TokenStateExpired:
		return shared.ErrTokenExpired
	case TokenStateIssued:
		// The CAS predicate includes expiry, so an issued row can only
		// lose on time.
		return shared.ErrTokenExpired
	case TokenStateRotated:
		s.lockoutPrincipal(ctx, principalID, tokenID, now)
		return shared.ErrTokenReuseDetected
	default:
		return shared.ErrAuthenticationRequired
	}
}

// lockoutPrincipal blacklists every issued refresh token of the principal.
// This runs on suspected theft and must not be skipped; failures are
// logged but the reuse error is surfaced regardless.
func (s *Service) lockoutPrincipal(ctx context.Context, principalID int64, tokenID string, now time.Time) {
	if s.metrics != nil {
		s.metrics.TokenReuse()
	}
	ids, err := s.repo.BlacklistAllIssued(ctx, principalID, now)
	if err != nil {
		s.warn("reuse lockout", err)
		return
	}
	if s.revocations != nil {
		for _, id := range ids {
			if row, err := s.repo.GetRefreshToken(ctx, id); err == nil {
				if err := s.revocations.Add(ctx, id, row.ExpiresAt, now); err != nil {
					s.warn("revocation mirror add", err)
				}
			}
		}
	}
	if s.logger != nil {
		s.logger.Warn("refresh token reuse detected",
			slog.Int64("principal_id", principalID),
			slog.String("token_id", tokenID),
			slog.Int("tokens_revoked", len(ids)))
	}
	if s.alerts != nil {
		if err := s.alerts.EnqueueSecurityAlert(ctx, principalID, "refresh token reuse detected"); err != nil {
			s.warn("enqueue security alert", err)
		}
	}
}

// Logout blacklists a refresh token. Idempotent: a token already in a
// terminal state still yields success, and an expired signature is
// accepted since the intent is revocation.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	claims, err := s.tokens.ParseRefreshLenient(rawRefresh)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	transitioned, err := s.repo.BlacklistRefreshToken(ctx, claims.ID, now)
	if err != nil {
		return err
	}
	if transitioned && s.revocations != nil && claims.ExpiresAt != nil {
		if err := s.revocations.Add(ctx, claims.ID, claims.ExpiresAt.Time, now); err != nil {
			s.warn("revocation mirror add", err)
		}
	}
	return nil
}

// Validate checks an access token and builds the per-request auth
// context. The principal's enabled flag and profile facts are re-read so
// disabling an account kills its outstanding access tokens immediately,
// stateless though they are.
func (s *Service) Validate(ctx context.Context, rawAccess string) (authz.AuthContext, error) {
	claims, err := s.tokens.ParseAccess(rawAccess)
	if err != nil {
		return authz.Anonymous(), err
	}
	principal, err := s.repo.GetPrincipal(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return authz.Anonymous(), shared.ErrAuthenticationRequired
		}
		return authz.Anonymous(), err
	}
	if !principal.Enabled {
		return authz.Anonymous(), shared.ErrPrincipalDisabled
	}
	role, err := s.resolveRole(ctx, principal)
	if err != nil {
		return authz.Anonymous(), err
	}
	return authz.AuthContext{Role: role, PrincipalID: principal.ID}, nil
}

// ExpireOverdueTokens transitions issued tokens past expiry; used by the
// maintenance sweep job.
func (s *Service) ExpireOverdueTokens(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx, s.now().UTC())
}

// ResolveContext derives the auth context for an already-authenticated
// principal, e.g. right after login.
func (s *Service) ResolveContext(ctx context.Context, principal *Principal) (authz.AuthContext, error) {
	role, err := s.resolveRole(ctx, principal)
	if err != nil {
		return authz.Anonymous(), err
	}
	return authz.AuthContext{Role: role, PrincipalID: principal.ID}, nil
}

func (s *Service) resolveRole(ctx context.Context, principal *Principal) (authz.Role, error) {
	hasLecturer, hasStudent, err := s.repo.ProfileFacts(ctx, principal.ID)
	if err != nil {
		return authz.RoleAnonymous, err
	}
	return authz.ResolveRole(true, authz.PrincipalFacts{
		Enabled:            principal.Enabled,
		IsAdministrator:    principal.IsAdministrator,
		HasLecturerProfile: hasLecturer,
		HasStudentProfile:  hasStudent,
	}), nil
}

func (s *Service) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}
