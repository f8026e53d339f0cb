package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusdesk/campusdesk/internal/platform/db"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// Repository abstracts principal and refresh-token persistence.
type Repository interface {
	FindPrincipalByUsername(ctx context.Context, username string) (*Principal, error)
	GetPrincipal(ctx context.Context, id int64) (*Principal, error)
	CreatePrincipal(ctx context.Context, username, passwordHash string) (*Principal, error)
	TouchLastAuthenticated(ctx context.Context, id int64, at time.Time) error
	ProfileFacts(ctx context.Context, principalID int64) (hasLecturer, hasStudent bool, err error)

	CreateRefreshToken(ctx context.Context, token RefreshToken) error
	GetRefreshToken(ctx context.Context, id string) (*RefreshToken, error)
	// RotateRefreshToken performs the atomic issued->rotated transition.
	// Returns false when the token was not in the issued state or already
	// past expiry; exactly one concurrent caller can observe true.
	RotateRefreshToken(ctx context.Context, id string, now time.Time) (bool, error)
	// BlacklistRefreshToken transitions issued->blacklisted and writes the
	// revocation record. Returns false when the token was already terminal.
	BlacklistRefreshToken(ctx context.Context, id string, at time.Time) (bool, error)
	// BlacklistAllIssued blacklists every issued refresh token of the
	// principal and returns the affected token ids.
	BlacklistAllIssued(ctx context.Context, principalID int64, at time.Time) ([]string, error)
	// ExpireOverdue transitions issued tokens past their expiry to the
	// expired state. Used by the maintenance sweep.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const principalColumns = `id, username, password_hash, enabled, is_administrator, last_authenticated_at, created_at`

func scanPrincipal(row pgx.Row) (*Principal, error) {
	var p Principal
	var lastAuth *time.Time
	if err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.Enabled, &p.IsAdministrator, &lastAuth, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lastAuth != nil {
		p.LastAuthenticatedAt = *lastAuth
	}
	return &p, nil
}

// FindPrincipalByUsername looks a principal up by its login name.
func (r *PGRepository) FindPrincipalByUsername(ctx context.Context, username string) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE username = $1`, username)
	return scanPrincipal(row)
}

// GetPrincipal fetches a principal by id.
func (r *PGRepository) GetPrincipal(ctx context.Context, id int64) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

// CreatePrincipal inserts an enabled, non-administrator principal.
func (r *PGRepository) CreatePrincipal(ctx context.Context, username, passwordHash string) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO principals (username, password_hash, enabled, is_administrator, created_at)
		VALUES ($1, $2, TRUE, FALSE, NOW())
		RETURNING `+principalColumns, username, passwordHash)
	p, err := scanPrincipal(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// TouchLastAuthenticated stamps a successful login.
func (r *PGRepository) TouchLastAuthenticated(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE principals SET last_authenticated_at = $2 WHERE id = $1`, id, at)
	return err
}

// ProfileFacts runs the two indexed existence lookups role resolution needs.
func (r *PGRepository) ProfileFacts(ctx context.Context, principalID int64) (bool, bool, error) {
	var hasLecturer, hasStudent bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM lecturer_profiles WHERE principal_id = $1),
			EXISTS (SELECT 1 FROM student_profiles WHERE principal_id = $1)`,
		principalID).Scan(&hasLecturer, &hasStudent)
	return hasLecturer, hasStudent, err
}

// CreateRefreshToken persists a freshly issued refresh token row.
func (r *PGRepository) CreateRefreshToken(ctx context.Context, token RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, principal_id, issued_at, expires_at, state)
		VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.PrincipalID, token.IssuedAt, token.ExpiresAt, token.State)
	return err
}

// GetRefreshToken fetches a refresh token row by jti.
func (r *PGRepository) GetRefreshToken(ctx context.Context, id string) (*RefreshToken, error) {
	var t RefreshToken
	err := r.pool.QueryRow(ctx, `
		SELECT id, principal_id, issued_at, expires_at, state
		FROM refresh_tokens WHERE id = $1`, id).
		Scan(&t.ID, &t.PrincipalID, &t.IssuedAt, &t.ExpiresAt, &t.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// RotateRefreshToken compare-and-sets issued->rotated. The state predicate
// in the UPDATE is what makes concurrent refreshes yield a single winner.
func (r *PGRepository) RotateRefreshToken(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET state = $3
		WHERE id = $1 AND state = $2 AND expires_at > $4`,
		id, TokenStateIssued, TokenStateRotated, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// BlacklistRefreshToken transitions issued->blacklisted and records the
// revocation in one transaction.
func (r *PGRepository) BlacklistRefreshToken(ctx context.Context, id string, at time.Time) (bool, error) {
	var transitioned bool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE refresh_tokens SET state = $3
			WHERE id = $1 AND state = $2`,
			id, TokenStateIssued, TokenStateBlacklisted)
		if err != nil {
			return err
		}
		transitioned = tag.RowsAffected() == 1
		if !transitioned {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO revocation_records (token_id, revoked_at)
			VALUES ($1, $2) ON CONFLICT (token_id) DO NOTHING`, id, at)
		return err
	})
	return transitioned, err
}

// BlacklistAllIssued is the theft response: every live refresh token of
// the principal is revoked in one transaction.
func (r *PGRepository) BlacklistAllIssued(ctx context.Context, principalID int64, at time.Time) ([]string, error) {
	var ids []string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE refresh_tokens SET state = $3
			WHERE principal_id = $1 AND state = $2
			RETURNING id`,
			principalID, TokenStateIssued, TokenStateBlacklisted)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := tx.Exec(ctx, `
				INSERT INTO revocation_records (token_id, revoked_at)
				VALUES ($1, $2) ON CONFLICT (token_id) DO NOTHING`, id, at); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpireOverdue sweeps issued tokens whose expiry has passed.
func (r *PGRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET state = $2
		WHERE state = $1 AND expires_at <= $3`,
		TokenStateIssued, TokenStateExpired, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
