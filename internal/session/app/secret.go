package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/scribe/pkg/jwtx"
)

// initCodec builds the token codec from config. HS256 takes its secret from
// the environment; EdDSA loads a PKCS#8 PEM key from disk. In dev, a missing
// HS256 secret is generated on the spot so the service still comes up, at
// the cost of invalidating every outstanding token on restart.
func initCodec(cfg Config, logger *slog.Logger) (jwtx.Codec, error) {
	switch cfg.Algorithm {
	case "HS256":
		secret := []byte(cfg.Secret)
		if len(secret) == 0 {
			if cfg.Env != "dev" {
				return nil, fmt.Errorf("SESSION_SECRET is required for HS256 outside dev")
			}
			secret = generateDevSecret()
			logger.Warn("SESSION_SECRET not set; generated an ephemeral dev secret",
				"consequence", "all tokens become invalid on restart")
		}
		codec, err := jwtx.NewHS256(secret)
		if err != nil {
			return nil, err
		}
		return codec, nil

	case "EdDSA":
		if cfg.SigningKeyFile == "" {
			return nil, fmt.Errorf("SESSION_SIGNING_KEY_FILE is required for EdDSA")
		}
		pemKey, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		codec, err := jwtx.NewEdDSAFromPEM(pemKey)
		if err != nil {
			return nil, err
		}
		return codec, nil

	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
}

func generateDevSecret() []byte {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return []byte(hex.EncodeToString(raw))
}
