package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the smallest accepted HS256 secret. HMAC-SHA256 gains
// nothing from secrets longer than the block size, but anything shorter than
// the hash size weakens it.
const MinSecretLen = 32

// HS256Codec signs and verifies tokens with a single shared HMAC-SHA256
// secret. This is the default for single-service deployments where issuer and
// verifier are the same process.
type HS256Codec struct {
	secret []byte
}

// NewHS256 creates a codec from a shared secret.
func NewHS256(secret []byte) (*HS256Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, errors.New("jwtx: HS256 secret must be at least 32 bytes")
	}
	// Copy so callers can't mutate the key out from under us.
	k := make([]byte, len(secret))
	copy(k, secret)
	return &HS256Codec{secret: k}, nil
}

func (c *HS256Codec) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Encode signs the claims into a compact three-segment token.
func (c *HS256Codec) Encode(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode parses and signature-checks a token. A token declaring any algorithm
// other than HS256 is rejected before its signature is even looked at, which
// closes the usual algorithm-confusion hole.
func (c *HS256Codec) Decode(token string) (Claims, error) {
	parsed, err := newParser().ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnsupportedAlgorithm
		}
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrMalformed
	}
	return *claims, nil
}
