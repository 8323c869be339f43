package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/scribe/pkg/jwtx"
)

type Config struct {
	Issuer   string // Issuer claim stamped into every token (default: scribe-session)
	Audience string // Audience claim tokens are bound to (default: scribe-api)

	Algorithm      string // JWT signing algorithm (HS256, EdDSA) (default: HS256)
	Secret         string // Shared secret for HS256; generated in dev when empty
	SigningKeyFile string // Path to a PKCS#8 PEM file for EdDSA

	AccessTTL  time.Duration // Access token lifetime (default: 30m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 720h)

	DatabaseFile string // Path to SQLite database file (default: ./session.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)
	RedisAddr    string // Optional: redis address; switches revocation to redis when set

	BootstrapUsername string // Optional: seed admin username for an empty directory
	BootstrapPassword string // Optional: seed admin password

	AllowWSQueryHeader bool // Allow the WebSocket handshake to carry "authorization" as a query parameter

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Revocation sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:   getEnvOrDefault("SESSION_ISSUER", "scribe-session"),
		Audience: getEnvOrDefault("SESSION_AUDIENCE", "scribe-api"),

		Algorithm:      getEnvOrDefault("SESSION_ALGORITHM", "HS256"),
		Secret:         os.Getenv("SESSION_SECRET"),
		SigningKeyFile: os.Getenv("SESSION_SIGNING_KEY_FILE"),

		AccessTTL:  getEnvDurationOrDefault("SESSION_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("SESSION_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile: getEnvOrDefault("SESSION_DATABASE_FILE", "session.db"),
		PepperFile:   getEnvOrDefault("SESSION_PEPPER_FILE", "pepper"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		BootstrapUsername: os.Getenv("SESSION_BOOTSTRAP_USERNAME"),
		BootstrapPassword: os.Getenv("SESSION_BOOTSTRAP_PASSWORD"),

		AllowWSQueryHeader: getEnvBoolOrDefault("SESSION_WS_ALLOW_QUERY_AUTH", false),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("SWEEP_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
