package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LEO_API_URL", "https://tutor.example.com/api/")
	t.Setenv("LEO_API_TOKEN", "secret")
	t.Setenv("LEO_API_TIMEOUT", "15s")
	t.Setenv("LEO_VOICE", "alloy")

	cfg := ConfigFromEnv()
	assert.Equal(t, "https://tutor.example.com/api", cfg.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "alloy", cfg.Voice)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg.BaseURL = "ftp://example.com"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
