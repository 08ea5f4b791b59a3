// Package config loads process-wide configuration once at startup.
// Values come from the environment, optionally seeded from a .env file;
// nothing here is mutated after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the server and import tool use.
type Config struct {
	Addr    string
	DataDir string

	JWTSecret     string
	TokenLifetime time.Duration

	AdminEmail    string
	AdminPassword string

	SyncInterval     time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int
	DegradedFallback bool
	UserAgent        string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present. The JWT secret is the only hard
// requirement: the API cannot issue tokens without one.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:             getEnv("ADDR", ":8080"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenLifetime:    getDuration("TOKEN_LIFETIME", 72*time.Hour),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@hostease.local"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		SyncInterval:     time.Duration(getInt("ICAL_SYNC_INTERVAL_HOURS", 2)) * time.Hour,
		FetchTimeout:     getDuration("ICAL_FETCH_TIMEOUT", 30*time.Second),
		FetchConcurrency: getInt("ICAL_FETCH_CONCURRENCY", 4),
		DegradedFallback: getBool("SYNC_DEGRADED_FALLBACK", false),
		UserAgent:        getEnv("ICAL_USER_AGENT", "HostEase Property Management System"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
