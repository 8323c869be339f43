// Package memory provides the in-process default revocation store. It is the
// right choice for single-instance deployments; sibling instances do not see
// each other's revocations, so multi-instance setups should use the redis
// driver instead.
package memory

import (
	"context"
	"sync"
	"time"
)

// Store is a thread-safe in-memory set of revoked token identifiers keyed
// with each token's natural expiry. Entries whose token has expired are
// dropped lazily on lookup and in bulk by Sweep, so the set stays bounded by
// the number of live revoked tokens rather than growing forever.
type Store struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry

	// Now is the clock used for expiry eviction; overridable in tests.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		entries: make(map[string]time.Time),
		Now:     time.Now,
	}
}

// Revoke adds the identifier to the set. Identifiers whose token has already
// expired are still recorded; they fall out on the next sweep.
func (s *Store) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
	return nil
}

// IsRevoked reports membership. An entry whose token expiry has passed is
// evicted and reported as not revoked; expiry wins over revocation anyway, so
// the caller never observes the difference.
func (s *Store) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.entries[jti]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !exp.IsZero() && s.Now().After(exp) {
		s.mu.Lock()
		// Re-check under the write lock; another caller may have re-revoked
		// with a later expiry in the window.
		if cur, ok := s.entries[jti]; ok && cur.Equal(exp) {
			delete(s.entries, jti)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Sweep removes entries whose token expiry has passed and returns how many
// were dropped. The app runs this periodically.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for jti, exp := range s.entries {
		if !exp.IsZero() && now.After(exp) {
			delete(s.entries, jti)
			dropped++
		}
	}
	return dropped
}

// Len reports the current number of tracked identifiers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
