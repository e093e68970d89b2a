package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryURL selects the in-process store instead of Postgres.
const MemoryURL = "memory://"

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	DemoMode       bool
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	CacheMaxCost   int64

	// ViewIdleTimeout is how long an unused per-user view is kept.
	ViewIdleTimeout time.Duration
	// MemorySeedUser gets a demo account and categories when the
	// in-process store is used.
	MemorySeedUser string
}

func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MemorySeedUser: strings.TrimSpace(getEnv("MEMORY_SEED_USER", "")),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	demo, err := strconv.ParseBool(getEnv("DEMO_MODE", "false"))
	if err != nil {
		return cfg, fmt.Errorf("DEMO_MODE: %w", err)
	}
	cfg.DemoMode = demo

	maxCost, err := strconv.ParseInt(getEnv("CACHE_MAX_COST", "1000"), 10, 64)
	if err != nil || maxCost <= 0 {
		return cfg, fmt.Errorf("CACHE_MAX_COST must be a positive integer")
	}
	cfg.CacheMaxCost = maxCost

	idle, err := time.ParseDuration(getEnv("VIEW_IDLE_TIMEOUT", "30m"))
	if err != nil || idle <= 0 {
		return cfg, fmt.Errorf("VIEW_IDLE_TIMEOUT must be a positive duration")
	}
	cfg.ViewIdleTimeout = idle

	return cfg, nil
}

// RequireSecret reports an error when no JWT secret is configured. Only the
// HTTP server needs one.
func (c Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func (c Config) InMemory() bool {
	return c.DatabaseURL == MemoryURL
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
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
