package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/internal/session/store"
	"github.com/aussiebroadwan/scribe/pkg/jwtx"
)

var (
	ErrPrincipalNotFound     = errors.New("service: principal not found")
	ErrPrincipalInactive     = errors.New("service: principal not active")
	ErrInsufficientRole      = errors.New("service: insufficient role")
	ErrPrincipalLookupFailed = errors.New("service: principal lookup failed")
)

// Directory resolves a principal by id and reports account status. The
// session core never writes through this interface; the directory owns its
// principals.
type Directory interface {
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)
}

// Gate turns a bearer credential into an authorized principal. It is the one
// step of the pipeline that touches external I/O (the directory lookup), so
// callers must treat it as potentially blocking and pass a real context.
type Gate struct {
	Sessions  *SessionService
	Directory Directory
}

// Authenticate verifies the credential as an access token, resolves the
// subject through the directory and checks account status. Directory errors
// other than not-found (timeouts, cancellation, backend failures) come back
// as ErrPrincipalLookupFailed so transports map them to a generic server
// error rather than leaking the cause.
func (g *Gate) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	p, _, err := g.AuthenticateClaims(ctx, token)
	return p, err
}

// AuthenticateClaims is Authenticate, additionally returning the verified
// claims. Long-lived transports use the claims expiry to cap connection
// lifetime at the session's.
func (g *Gate) AuthenticateClaims(ctx context.Context, token string) (domain.Principal, jwtx.Claims, error) {
	claims, err := g.Sessions.Verify(ctx, token, jwtx.TokenTypeAccess)
	if err != nil {
		return domain.Principal{}, jwtx.Claims{}, err
	}

	p, err := g.Directory.GetPrincipalByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Principal{}, jwtx.Claims{}, ErrPrincipalNotFound
	case err != nil:
		return domain.Principal{}, jwtx.Claims{}, fmt.Errorf("%w: %v", ErrPrincipalLookupFailed, err)
	}

	if !p.Active() {
		return domain.Principal{}, jwtx.Claims{}, ErrPrincipalInactive
	}
	return p, claims, nil
}

// AuthenticateRole is Authenticate plus a role check against an allowed set.
func (g *Gate) AuthenticateRole(ctx context.Context, token string, allowed ...domain.Role) (domain.Principal, error) {
	p, err := g.Authenticate(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}
	if !slices.Contains(allowed, p.Role) {
		return domain.Principal{}, ErrInsufficientRole
	}
	return p, nil
}
