package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage
	StoreBackend string // "file", "sqlite", "postgres" or "badger"
	DataDir      string // flat-file backend directory, also seed target
	SQLitePath   string
	BadgerPath   string
	DatabaseURL  string
	RedisURL     string // optional; enables the rate limiter when set

	// Campus accounts: only these email domains may sign up or log in.
	AllowedEmailDomains []string

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "3000"),
		Env:          getEnv("ENV", "development"),
		StoreBackend: getEnv("STORE_BACKEND", "file"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		BadgerPath:   os.Getenv("BADGER_PATH"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
	}

	cfg.AllowedEmailDomains = splitList(getEnv(
		"ALLOWED_EMAIL_DOMAINS", "@jiit.ac.in,@mail.jiit.ac.in"))
	cfg.RateLimitWhitelist = splitList(os.Getenv("RATE_LIMIT_WHITELIST"))

	if cfg.Env == "production" && cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		panic("DATABASE_URL is required for the postgres backend in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// EmailDomainAllowed reports whether the (already lowercased) address ends
// with one of the allowed campus domains.
func (c *Config) EmailDomainAllowed(email string) bool {
	for _, d := range c.AllowedEmailDomains {
		if strings.HasSuffix(email, d) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
