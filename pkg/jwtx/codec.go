package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Codec turns claims into a signed compact token string and back. Decode only
// establishes structure and signature; semantic checks (type, binding, expiry,
// revocation) belong to the verifier so their order and classification stay in
// one place.
type Codec interface {
	// Encode serializes and signs the claims.
	Encode(claims Claims) (string, error)

	// Decode parses and signature-checks a token, returning its claims with
	// no further validation. Errors are one of ErrMalformed,
	// ErrInvalidSignature or ErrUnsupportedAlgorithm.
	Decode(token string) (Claims, error)

	// Alg reports the JWA algorithm name this codec signs with.
	Alg() string
}

var (
	ErrMalformed            = errors.New("jwtx: malformed token")
	ErrInvalidSignature     = errors.New("jwtx: invalid signature")
	ErrUnsupportedAlgorithm = errors.New("jwtx: unsupported algorithm")
)

// newParser builds a parser that skips claim validation. Expiry and nbf are
// checked later against an injected clock, not the wall clock buried in the
// jwt library.
func newParser() *jwt.Parser {
	return jwt.NewParser(jwt.WithoutClaimsValidation())
}

// classifyParseError maps golang-jwt parse failures onto this package's
// error taxonomy. The keyfunc surfaces ErrUnsupportedAlgorithm itself, which
// the library wraps; everything else is either structural or cryptographic.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return ErrUnsupportedAlgorithm
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
