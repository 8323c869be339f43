package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/internal/session/store"
	"github.com/aussiebroadwan/scribe/pkg/cryptox"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords so
// a caller cannot probe which usernames exist.
var ErrInvalidCredentials = errors.New("service: invalid credentials")

// LoginService exchanges a username/password for a session pair. The password
// check itself is opaque to the session core; this service just sequences
// lookup, check, status and issuance.
type LoginService struct {
	Sessions   *SessionService
	Principals store.Principals
}

func (s *LoginService) Login(ctx context.Context, username, password string) (domain.SessionPair, error) {
	l := slogx.FromContext(ctx)

	p, err := s.Principals.GetPrincipalByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionPair{}, ErrInvalidCredentials
		}
		return domain.SessionPair{}, err
	}

	if err := cryptox.VerifyPassword(password, p.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("principal_id", p.ID))
		return domain.SessionPair{}, ErrInvalidCredentials
	}

	if !p.Active() {
		l.Info("login refused for non-active account",
			slog.String("principal_id", p.ID),
			slog.String("status", string(p.Status)),
		)
		return domain.SessionPair{}, ErrPrincipalInactive
	}

	return s.Sessions.IssuePair(p)
}
