package app

import (
	"os"
	"strconv"
	"time"

	"github.com/promogate/adminauth/pkg/jwtx"
)

type Config struct {
	Issuer         string // Issuer claim for tokens
	SigningKeyFile string // Required: path to the PEM-encoded Ed25519 signing key
	EncryptionKey  string // Required: 64-char hex AES-256 key for secrets at rest

	DatabaseFile string        // Path to SQLite database file (default: ./adminauth.db)
	AccessTTL    time.Duration // Access token lifetime (default: 1h)
	RefreshTTL   time.Duration // Refresh session lifetime (default: 720h)
	ChallengeTTL time.Duration // MFA challenge lifetime (default: 5m)

	AdminUsername string // Optional: bootstrap admin account
	AdminPassword string // Optional: bootstrap admin password

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "adminauth"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "adminauth.db"),
		AccessTTL:    getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:   getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		ChallengeTTL: getEnvDurationOrDefault("AUTH_CHALLENGE_TTL", jwtx.DefaultChallengeTTL),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
