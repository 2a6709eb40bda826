package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the CLI settings.
type Config struct {
	ServerURL    string
	ClientID     string
	ClientSecret string

	// KeychainFile is the SQLite database holding the sealed token pair.
	KeychainFile string
	// MasterKeyFile holds the key the keychain entries are sealed with.
	MasterKeyFile string

	HTTPTimeout   time.Duration
	RevokeTimeout time.Duration

	Env       string
	LogLevel  string
	LogFormat string
}

// LoadConfig reads the configuration from the environment. Values in the
// given dotenv files (".env" when none are named) fill in variables the
// environment leaves unset. Missing files are ignored.
func LoadConfig(envFiles ...string) Config {
	dotenv, err := godotenv.Read(envFiles...)
	if err != nil {
		dotenv = map[string]string{}
	}
	env := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	dir := defaultDataDir()

	return Config{
		ServerURL:     getOrDefault(env, "DUCKAUTH_SERVER_URL", "http://localhost:8080"),
		ClientID:      getOrDefault(env, "DUCKAUTH_CLIENT_ID", "duckauth-cli"),
		ClientSecret:  env("DUCKAUTH_CLIENT_SECRET"),
		KeychainFile:  getOrDefault(env, "DUCKAUTH_KEYCHAIN_FILE", filepath.Join(dir, "keychain.db")),
		MasterKeyFile: getOrDefault(env, "DUCKAUTH_MASTER_KEY_FILE", filepath.Join(dir, "master.key")),
		HTTPTimeout:   getDurationOrDefault(env, "DUCKAUTH_HTTP_TIMEOUT", 10*time.Second),
		RevokeTimeout: getDurationOrDefault(env, "DUCKAUTH_REVOKE_TIMEOUT", 5*time.Second),
		Env:           getOrDefault(env, "ENV", "prod"),
		LogLevel:      getOrDefault(env, "LOG_LEVEL", "warn"),
		LogFormat:     getOrDefault(env, "LOG_FORMAT", "text"),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "duckauth")
	}
	return ".duckauth"
}

func getOrDefault(env func(string) string, key, defaultValue string) string {
	if value := env(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(env func(string) string, key string, defaultValue time.Duration) time.Duration {
	value := env(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	// Plain integers are seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
