package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/scribe/pkg/idx"
)

// Default token TTL constants for session credentials. Short access tokens
// bound the exposure window after a revocation miss; long refresh tokens keep
// users logged in between visits. Both can be overridden per-service.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenType discriminates the two halves of a session pair. A token only ever
// carries one type, set at issuance and never changed.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the session-token claims used across the service. We are keeping
// changes additive to preserve compatibility for later; anything experimental
// goes in Ext.
type Claims struct {
	jwt.RegisteredClaims

	// Role is a snapshot of the principal's role at issuance time. The
	// directory remains the source of truth; this is a hint for coarse
	// gating without a lookup.
	Role string `json:"role,omitempty"`

	// TokenType marks the claims as belonging to an access or refresh token.
	TokenType TokenType `json:"type,omitempty"`

	// Ext is an open extension map for forward compatibility. Unknown keys
	// survive an encode/decode round trip untouched.
	Ext map[string]any `json:"ext,omitempty"`
}

// NewClaims builds minimally-correct claims for one token of a session pair.
// Each call mints a fresh jti, so two tokens issued together still revoke
// independently.
func NewClaims(
	subject, role string,
	tokenType TokenType,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Role:      role,
		TokenType: tokenType,
	}
}

// HasAudience reports whether the expected audience is present. Audience is a
// list on the wire even though this service only ever mints a single value.
func (c *Claims) HasAudience(expected string) bool {
	for _, aud := range c.Audience {
		if aud == expected {
			return true
		}
	}
	return false
}

// Expiry returns the exp claim as a time, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
