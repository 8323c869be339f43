package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the principal directory.
// Concrete drivers (sqlite today, postgres later) implement this. The session
// core only ever reads principals; writes exist for bootstrap and admin
// tooling.
type Store interface {
	Principals() Principals

	ApplyMigrations() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Principals is the directory of known identities.
type Principals interface {
	// GetPrincipalByID returns a principal by id.
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// GetPrincipalByUsername returns a principal by username.
	GetPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error)

	// CreatePrincipal inserts a new principal. Fails with ErrAlreadyExists
	// when the username is taken.
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// ListPrincipals returns all principals ordered by id (creation order).
	ListPrincipals(ctx context.Context) ([]domain.Principal, error)

	// UpdatePrincipalStatus changes a principal's account status.
	UpdatePrincipalStatus(ctx context.Context, id string, status domain.AccountStatus) error

	// IsEmpty reports whether the directory holds no principals yet.
	IsEmpty(ctx context.Context) (bool, error)
}
