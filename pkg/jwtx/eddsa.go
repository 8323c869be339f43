package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSACodec signs with an Ed25519 private key and verifies with the matching
// public key. Use this when verification happens in a different process than
// issuance and the secret must not leave the issuer.
type EdDSACodec struct {
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// NewEdDSA creates a codec from an Ed25519 private key.
func NewEdDSA(key ed25519.PrivateKey) (*EdDSACodec, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.New("jwtx: invalid Ed25519 private key size")
	}
	return &EdDSACodec{
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

// NewEdDSAFromPEM loads an Ed25519 private key from PKCS8 PEM bytes.
func NewEdDSAFromPEM(pemKey []byte) (*EdDSACodec, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}

	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not Ed25519 private key")
	}

	return NewEdDSA(key)
}

func (c *EdDSACodec) Alg() string { return jwt.SigningMethodEdDSA.Alg() }

// Encode signs the claims into a compact three-segment token.
func (c *EdDSACodec) Encode(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(c.key)
}

// Decode parses and signature-checks a token, pinning the algorithm to EdDSA.
func (c *EdDSACodec) Decode(token string) (Claims, error) {
	parsed, err := newParser().ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodEdDSA.Alg() {
			return nil, ErrUnsupportedAlgorithm
		}
		return c.pub, nil
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
