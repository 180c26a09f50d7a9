// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API process needs to start.
type Config struct {
	Addr        string
	DSN         string
	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration
	PSIAPIKey   string

	RateBurst     int
	RatePerSecond int

	Version string
	Commit  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          getenv("TRAILMARK_ADDR", ":8080"),
		DSN:           os.Getenv("TRAILMARK_PG_DSN"),
		TokenSecret:   os.Getenv("TRAILMARK_TOKEN_SECRET"),
		TokenIssuer:   getenv("TRAILMARK_TOKEN_ISSUER", "trailmark-api"),
		PSIAPIKey:     os.Getenv("TRAILMARK_PSI_API_KEY"),
		Version:       getenv("TRAILMARK_VERSION", "dev"),
		Commit:        getenv("TRAILMARK_COMMIT", "unknown"),
		RateBurst:     50,
		RatePerSecond: 25,
	}

	ttl, err := getduration("TRAILMARK_TOKEN_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL = ttl

	if cfg.RateBurst, err = getint("TRAILMARK_RATE_BURST", cfg.RateBurst); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSecond, err = getint("TRAILMARK_RATE_PER_SECOND", cfg.RatePerSecond); err != nil {
		return Config{}, err
	}

	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("TRAILMARK_TOKEN_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
