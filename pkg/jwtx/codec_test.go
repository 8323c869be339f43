package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testSecret() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func testClaims(now time.Time) Claims {
	return NewClaims("01ARZ3NDEKTSV4RRFFQ69G5FAV", "user", TokenTypeAccess,
		30*time.Minute, "scribe-session", "scribe-api", now)
}

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewHS256(testSecret())
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	claims := testClaims(now)
	claims.Ext = map[string]any{"device": "cli"}

	token, err := codec.Encode(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3, "compact serialization has three segments")

	got, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, got.Subject)
	require.Equal(t, claims.Role, got.Role)
	require.Equal(t, TokenTypeAccess, got.TokenType)
	require.Equal(t, claims.ID, got.ID)
	require.Equal(t, "scribe-session", got.Issuer)
	require.True(t, got.HasAudience("scribe-api"))
	require.Equal(t, now.Add(30*time.Minute), got.Expiry())
	require.Equal(t, "cli", got.Ext["device"])
}

func TestHS256RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256([]byte("too short"))
	require.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	codec, err := NewHS256(testSecret())
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d", "!!.!!.!!"} {
		_, err := codec.Decode(token)
		require.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestDecodeTamper(t *testing.T) {
	t.Parallel()

	codec, err := NewHS256(testSecret())
	require.NoError(t, err)

	token, err := codec.Encode(testClaims(time.Now().UTC()))
	require.NoError(t, err)

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	segments := strings.Split(token, ".")

	t.Run("payload tamper", func(t *testing.T) {
		tampered := segments[0] + "." + flip(segments[1], len(segments[1])/2) + "." + segments[2]
		_, err := codec.Decode(tampered)
		require.True(t,
			errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformed),
			"got %v", err)
	})

	t.Run("signature tamper", func(t *testing.T) {
		tampered := segments[0] + "." + segments[1] + "." + flip(segments[2], len(segments[2])/2)
		_, err := codec.Decode(tampered)
		require.True(t,
			errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformed),
			"got %v", err)
	})
}

func TestDecodeWrongSecret(t *testing.T) {
	t.Parallel()

	a, err := NewHS256(testSecret())
	require.NoError(t, err)
	b, err := NewHS256([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	token, err := a.Encode(testClaims(time.Now().UTC()))
	require.NoError(t, err)

	_, err = b.Decode(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeAlgorithmConfusion(t *testing.T) {
	t.Parallel()

	hs, err := NewHS256(testSecret())
	require.NoError(t, err)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ed, err := NewEdDSA(priv)
	require.NoError(t, err)

	t.Run("HS256 token against EdDSA codec", func(t *testing.T) {
		token, err := hs.Encode(testClaims(time.Now().UTC()))
		require.NoError(t, err)

		_, err = ed.Decode(token)
		require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("EdDSA token against HS256 codec", func(t *testing.T) {
		token, err := ed.Encode(testClaims(time.Now().UTC()))
		require.NoError(t, err)

		_, err = hs.Decode(token)
		require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(time.Now().UTC())).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = hs.Decode(unsigned)
		require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestDecodeSkipsSemanticChecks(t *testing.T) {
	t.Parallel()

	codec, err := NewHS256(testSecret())
	require.NoError(t, err)

	// Issued well in the past: structurally fine, semantically expired.
	past := time.Now().UTC().Add(-48 * time.Hour)
	token, err := codec.Encode(testClaims(past))
	require.NoError(t, err)

	got, err := codec.Decode(token)
	require.NoError(t, err, "decode must not enforce expiry")
	require.True(t, got.Expiry().Before(time.Now()))
}

func TestEdDSAFromPEM(t *testing.T) {
	t.Parallel()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	codec, err := NewEdDSAFromPEM(pemKey)
	require.NoError(t, err)

	token, err := codec.Encode(testClaims(time.Now().UTC()))
	require.NoError(t, err)

	got, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, TokenTypeAccess, got.TokenType)

	t.Run("rejects non-PKCS8 blocks", func(t *testing.T) {
		bad := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
		_, err := NewEdDSAFromPEM(bad)
		require.Error(t, err)
	})
}
