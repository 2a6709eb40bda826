package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
)

type Config struct {
	ClientID     string // Client id accepted in the Basic header (default: duckauth-cli)
	ClientSecret string // Required: client secret accepted in the Basic header
	Audience     string // Optional: aud claim for access tokens

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 30 days)

	SigningKeyFile string // Optional: PEM Ed25519 key, created if missing. Empty means ephemeral
	SigningKeyID   string // kid header for issued tokens (default: dev-1)

	SeedUsername string   // Optional: user created on an empty database
	SeedPassword string   // Required when SeedUsername is set
	SeedRoles    []string // Roles for the seed user, comma separated in the env

	DatabaseFile         string        // Path to SQLite database file (default: ./authserver.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		ClientID:             getEnvOrDefault("AUTH_CLIENT_ID", "duckauth-cli"),
		ClientSecret:         os.Getenv("AUTH_CLIENT_SECRET"),
		Audience:             os.Getenv("AUTH_AUDIENCE"),
		AccessTTL:            getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		SigningKeyFile:       os.Getenv("AUTH_SIGNING_KEY_FILE"),
		SigningKeyID:         getEnvOrDefault("AUTH_SIGNING_KEY_ID", "dev-1"),
		SeedUsername:         os.Getenv("AUTH_SEED_USERNAME"),
		SeedPassword:         os.Getenv("AUTH_SEED_PASSWORD"),
		SeedRoles:            splitList(os.Getenv("AUTH_SEED_ROLES")),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "authserver.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
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

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
