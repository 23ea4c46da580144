package api

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds learning service connection settings.
type Config struct {
	// BaseURL is the root of the learning service API, without trailing slash.
	BaseURL string

	// Token is the bearer token attached to every request. Optional in
	// development deployments.
	Token string

	// Voice is the synthesized-speech voice requested for playback.
	Voice string

	// Timeout is the maximum duration for a single service call.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Voice:   "nova",
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("LEO_API_URL"); u != "" {
		cfg.BaseURL = strings.TrimRight(u, "/")
	}
	if t := os.Getenv("LEO_API_TOKEN"); t != "" {
		cfg.Token = t
	}
	if v := os.Getenv("LEO_VOICE"); v != "" {
		cfg.Voice = v
	}
	if d := os.Getenv("LEO_API_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}

	return cfg
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("LEO_API_URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("LEO_API_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
