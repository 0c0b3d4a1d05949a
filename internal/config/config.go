// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode determines whether the server uses in-memory fixtures or Postgres.
type Mode string

const (
	ModeStub       Mode = "stub"
	ModeProduction Mode = "production"
)

// Config holds all application configuration.
type Config struct {
	Mode        Mode
	FixturesDir string
	DatabaseURL string

	// API server settings.
	APIPort     string
	CORSOrigins []string
	LogLevel    string
	OTelEnabled bool

	// OIDC settings for the login-required gate; empty issuer disables
	// token verification and every visitor is anonymous.
	OIDCIssuer   string
	OIDCAudience string

	// Abuse controls on the public submit endpoint.
	SubmitRatePerSecond float64
	SubmitBurst         int
	DuplicateWindow     time.Duration

	// Default language for visitor-facing messages.
	Language string
}

// OIDCEnabled reports whether bearer-token verification is configured.
func (c Config) OIDCEnabled() bool { return c.OIDCIssuer != "" }

// LoadFromEnv reads configuration from environment variables with sensible defaults.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Mode:         Mode(envOr("WEBFORM_MODE", "stub")),
		FixturesDir:  envOr("WEBFORM_FIXTURES_DIR", "fixtures"),
		DatabaseURL:  os.Getenv("WEBFORM_DATABASE_URL"),
		APIPort:      envOr("WEBFORM_API_PORT", "8080"),
		CORSOrigins:  parseCORSOrigins(os.Getenv("WEBFORM_CORS_ORIGINS")),
		LogLevel:     envOr("WEBFORM_LOG_LEVEL", "info"),
		OTelEnabled:  envBool("WEBFORM_OTEL_ENABLED", false),
		OIDCIssuer:   os.Getenv("WEBFORM_OIDC_ISSUER"),
		OIDCAudience: os.Getenv("WEBFORM_OIDC_AUDIENCE"),
		Language:     envOr("WEBFORM_LANG", "en"),
	}

	var err error
	if cfg.SubmitRatePerSecond, err = envFloat("WEBFORM_SUBMIT_RATE", 1); err != nil {
		return Config{}, err
	}
	if cfg.SubmitBurst, err = envInt("WEBFORM_SUBMIT_BURST", 5); err != nil {
		return Config{}, err
	}
	if cfg.DuplicateWindow, err = envDuration("WEBFORM_DUPLICATE_WINDOW", time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.Mode != ModeStub && cfg.Mode != ModeProduction {
		return Config{}, fmt.Errorf("config: invalid WEBFORM_MODE %q (must be stub or production)", cfg.Mode)
	}
	if cfg.Mode == ModeProduction && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: WEBFORM_DATABASE_URL required in production mode")
	}
	if cfg.OIDCEnabled() && cfg.OIDCAudience == "" {
		return Config{}, fmt.Errorf("config: WEBFORM_OIDC_AUDIENCE required when WEBFORM_OIDC_ISSUER is set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
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

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseCORSOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
