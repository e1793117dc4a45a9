package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.RateLimitBackend)
	assert.Equal(t, 100, cfg.DefaultRateLimit)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Second, cfg.UsageCacheTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_LISTEN_ADDR", ":9000")
	t.Setenv("DEFAULT_RATE_LIMIT", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10m")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPListenAddr)
	assert.Equal(t, 5, cfg.DefaultRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "redis", cfg.RateLimitBackend)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		DatabaseURL:      "postgres://localhost/platform",
		OpenAIAPIKey:     "sk-upstream",
		RateLimitBackend: "memory",
		RateLimitWindow:  time.Hour,
	}
	assert.NoError(t, cfg.Validate())

	missing := *cfg
	missing.DatabaseURL = ""
	assert.Error(t, missing.Validate())

	noKey := *cfg
	noKey.OpenAIAPIKey = ""
	assert.Error(t, noKey.Validate())

	badBackend := *cfg
	badBackend.RateLimitBackend = "memcached"
	assert.Error(t, badBackend.Validate())
}
