// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

// Config holds every tunable of the server. The zero values of the fetch
// and limit settings mean "unbounded" / "disabled".
type Config struct {
	Port      int    `env:"PORT"                envDefault:"3000"`
	AssetsDir string `env:"RANKCARD_ASSETS_DIR" envDefault:"assets"`
	FontPath  string `env:"RANKCARD_FONT_PATH"`

	// FontDirs are searched for a Japanese-capable fallback font. Empty
	// means the usual system font directories.
	FontDirs []string `env:"RANKCARD_FONT_DIRS" envSeparator:","`

	FetchTimeout  time.Duration `env:"RANKCARD_FETCH_TIMEOUT"   envDefault:"0s"`
	FetchMaxBytes int64         `env:"RANKCARD_FETCH_MAX_BYTES" envDefault:"0"`

	RateRPS       float64 `env:"RANKCARD_RATE_RPS"       envDefault:"0"`
	RateBurst     int     `env:"RANKCARD_RATE_BURST"     envDefault:"20"`
	MaxConcurrent int     `env:"RANKCARD_MAX_CONCURRENT" envDefault:"0"`

	// TrustedProxies may set X-Forwarded-For. Empty trusts none, so the
	// client address is always the TCP peer.
	TrustedProxies []string `env:"RANKCARD_TRUSTED_PROXIES" envSeparator:","`

	LogLevel string `env:"RANKCARD_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that cannot be served.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be in 1..65535, got %d", c.Port)
	}
	if c.AssetsDir == "" {
		return errors.New("RANKCARD_ASSETS_DIR must not be empty")
	}
	if c.FetchTimeout < 0 {
		return errors.New("RANKCARD_FETCH_TIMEOUT must be >= 0")
	}
	if c.FetchMaxBytes < 0 {
		return errors.New("RANKCARD_FETCH_MAX_BYTES must be >= 0")
	}
	if c.RateRPS < 0 {
		return errors.New("RANKCARD_RATE_RPS must be >= 0")
	}
	if c.RateRPS > 0 && c.RateBurst <= 0 {
		return errors.New("RANKCARD_RATE_BURST must be > 0 when rate limiting is enabled")
	}
	if c.MaxConcurrent < 0 {
		return errors.New("RANKCARD_MAX_CONCURRENT must be >= 0")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("RANKCARD_LOG_LEVEL: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
