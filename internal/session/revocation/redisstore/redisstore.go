// Package redisstore backs the revocation set with redis so that a fleet of
// service instances shares revocation state. Each revoked jti becomes a key
// whose TTL matches the token's remaining lifetime, so redis expires entries
// exactly when they stop mattering.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/scribe/internal/session/revocation"
)

const keyPrefix = "session:revoked:"

type Store struct {
	client redis.UniversalClient

	// Now is the clock used to compute remaining token lifetime;
	// overridable in tests.
	Now func() time.Time
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client, Now: time.Now}
}

// Revoke records the identifier with a TTL equal to the token's remaining
// lifetime. A token that is already past its expiry is not recorded: the
// verifier rejects it as expired before ever consulting this store.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.Now())
	if !expiresAt.IsZero() && ttl <= 0 {
		return nil
	}
	if expiresAt.IsZero() {
		// No expiry on the token; the entry has to stay until someone
		// cleans it up out of band.
		ttl = 0
	}

	if err := s.client.Set(ctx, keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports membership.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	return n > 0, nil
}
