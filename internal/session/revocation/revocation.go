// Package revocation tracks the token identifiers (jti) that have been
// explicitly invalidated before their natural expiry. Presence in the store
// is the only state; entries are never enumerated, only membership-checked
// during verification.
package revocation

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports that the backing store could not be reached. The
// verifier treats this as a failed check, never as "not revoked".
var ErrUnavailable = errors.New("revocation: store unavailable")

// Store is a concurrency-safe set of revoked token identifiers. Every entry
// carries the token's natural expiry so implementations can drop entries that
// no longer matter (an expired token is rejected before the store is ever
// consulted).
//
// Visibility across concurrent callers is eventual, not linearizable: a
// verification already in flight when Revoke is called may still pass. Once
// Revoke returns, subsequent checks observe the revocation.
type Store interface {
	// Revoke adds a token identifier to the set. Revoking an identifier
	// that is already present is a no-op, not an error.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether the identifier is in the set.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
