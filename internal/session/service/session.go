package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/internal/session/revocation"
	"github.com/aussiebroadwan/scribe/pkg/jwtx"
)

var (
	ErrWrongTokenType = errors.New("service: wrong token type")
	ErrInvalidBinding = errors.New("service: issuer or audience mismatch")
	ErrNotYetValid    = errors.New("service: token not yet valid")
	ErrExpired        = errors.New("service: token expired")
	ErrRevoked        = errors.New("service: token revoked")
)

// SessionService issues, verifies, rotates and revokes session token pairs.
// Everything except the revocation set is stateless: tokens are
// self-contained, so issuance writes nothing anywhere.
type SessionService struct {
	Codec       jwtx.Codec
	Revocations revocation.Store

	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock for expiry decisions; overridable in tests.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssuePair mints a fresh access/refresh pair for the principal. The two
// tokens share subject, role, issuer and audience but carry independent jtis
// and expiries, so each half revokes on its own.
func (s *SessionService) IssuePair(p domain.Principal) (domain.SessionPair, error) {
	now := s.now().UTC()

	access := jwtx.NewClaims(p.ID, string(p.Role), jwtx.TokenTypeAccess,
		s.accessTTL(), s.Issuer, s.Audience, now)
	refresh := jwtx.NewClaims(p.ID, string(p.Role), jwtx.TokenTypeRefresh,
		s.refreshTTL(), s.Issuer, s.Audience, now)

	accessToken, err := s.Codec.Encode(access)
	if err != nil {
		return domain.SessionPair{}, err
	}
	refreshToken, err := s.Codec.Encode(refresh)
	if err != nil {
		return domain.SessionPair{}, err
	}

	return domain.SessionPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// Verify runs the validation pipeline over a presented token, short-circuiting
// at the first failure: decode (structure + signature), token type, issuer and
// audience binding, nbf, exp, then revocation membership. The cheap local
// checks run before the store lookup so malformed tokens never cost a store
// round trip.
func (s *SessionService) Verify(ctx context.Context, token string, want jwtx.TokenType) (jwtx.Claims, error) {
	claims, err := s.Codec.Decode(token)
	if err != nil {
		return jwtx.Claims{}, err
	}

	if claims.TokenType != want {
		return jwtx.Claims{}, ErrWrongTokenType
	}
	if claims.Issuer != s.Issuer || !claims.HasAudience(s.Audience) {
		return jwtx.Claims{}, ErrInvalidBinding
	}

	now := s.now()
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return jwtx.Claims{}, ErrNotYetValid
	}
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return jwtx.Claims{}, ErrExpired
	}

	revoked, err := s.Revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if revoked {
		return jwtx.Claims{}, ErrRevoked
	}

	return claims, nil
}

// Refresh rotates a refresh token: the presented token is verified, its jti
// is revoked, and a brand-new pair is issued from the claims snapshot. The
// revocation happens before issuance on purpose: if issuance fails after the
// revoke, the caller is left without a session, which beats leaving two
// simultaneously valid refresh chains.
//
// The access token that was issued alongside the presented refresh token is
// not revoked here; it keeps working until its own short expiry. Logout is
// the operation that revokes both halves.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.SessionPair, error) {
	claims, err := s.Verify(ctx, refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return domain.SessionPair{}, err
	}

	if err := s.Revocations.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return domain.SessionPair{}, err
	}

	return s.IssuePair(domain.Principal{
		ID:   claims.Subject,
		Role: domain.Role(claims.Role),
	})
}

// Revoke invalidates a single token of either type. It reports false when the
// token does not decode, carries no jti, or the store write fails; callers
// treat a false as "nothing to revoke" (logout stays idempotent). Revoking
// one half of a pair leaves the other half valid.
func (s *SessionService) Revoke(ctx context.Context, token string) bool {
	claims, err := s.Codec.Decode(token)
	if err != nil || claims.ID == "" {
		return false
	}
	if err := s.Revocations.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return false
	}
	return true
}
