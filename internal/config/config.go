// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/logging"
)

const devSecret = "dev-secret-change-in-production"

// Config holds the settings for the ledger server and ledgerctl.
type Config struct {
	DBPath     string // path to the SQLite database (default "./data/ledger.db")
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // debug, info, warn, error (default "info")
	Env        string // "development" (default) or "production"

	JWTSecret string        // HS256 secret for bearer tokens
	TokenTTL  time.Duration // lifetime of issued tokens (default 24h)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second per client (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	CORSAllowedOrigins []string // default ["*"]

	// Locale and Currency control how amounts appear in validation messages.
	Locale   string // BCP 47 tag (default "en-US")
	Currency string // ISO 4217 code (default "USD")

	// Warnings are logged by the caller once logging is set up.
	Warnings []string
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	return logging.ParseLevel(c.LogLevel)
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv reads the configuration and applies defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:     getEnv("DB_PATH", "./data/ledger.db"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Env:        getEnv("ENV", "development"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   24 * time.Hour,
		Locale:     getEnv("LOCALE", money.DefaultLocale),
		Currency:   strings.ToUpper(getEnv("CURRENCY", money.DefaultCurrency)),

		RateLimitRPS:       50,
		RateLimitBurst:     100,
		CORSAllowedOrigins: []string{"*"},
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		cfg.RateLimitBurst = n
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values LoadFromEnv cannot default.
func (c *Config) Validate() error {
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid LOCALE %q: %w", c.Locale, err)
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		return fmt.Errorf("invalid CURRENCY %q: %w", c.Currency, err)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == devSecret {
			return fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			return fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
