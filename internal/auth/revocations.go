package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList mirrors persisted revocation records into Redis so the
// hot refresh path can reject blacklisted tokens without touching
// Postgres. Entries carry the token's remaining lifetime as TTL; once the
// signature itself has expired the mirror entry is useless and may lapse.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList constructs a RevocationList.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}

// Add marks a token id revoked until expiresAt.
func (l *RevocationList) Add(ctx context.Context, tokenID string, expiresAt, now time.Time) error {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err()
}

// Contains reports whether the token id is in the mirror.
func (l *RevocationList) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
