// Package config loads client configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI and dev server read from the
// environment.
type Config struct {
	APIBaseURL     string
	DataDir        string
	RequestTimeout time.Duration
	Port           string
	JWTSecret      string
}

// Load reads configuration, applying defaults for anything unset. A
// missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		APIBaseURL:     getEnv("GRIDCORE_API_URL", "http://localhost:3001"),
		DataDir:        getEnv("GRIDCORE_DATA_DIR", defaultDataDir()),
		RequestTimeout: 30 * time.Second,
		Port:           getEnv("PORT", "3001"),
		JWTSecret:      getEnv("JWT_SECRET", "default-secret-change-in-production"),
	}

	if raw := os.Getenv("GRIDCORE_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.RequestTimeout = d
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gridcore"
	}
	return filepath.Join(home, ".gridcore")
}
