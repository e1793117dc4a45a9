package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName    string
	HTTPListenAddr string
	DatabaseURL    string
	LogLevel       string

	// Upstream vendor
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	UpstreamTimeout time.Duration

	// Rate limiting
	DefaultRateLimit int           // requests per window when a key has no quota set
	RateLimitWindow  time.Duration // fixed window, default 1 hour
	RateLimitBackend string        // "memory" or "redis"
	RedisURL         string

	// Usage aggregation
	UsageCacheTTL time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:      getEnv("SERVICE_NAME", "openai-api-platform"),
		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		UpstreamTimeout:  getEnvDuration("UPSTREAM_TIMEOUT", 60*time.Second),
		DefaultRateLimit: getEnvInt("DEFAULT_RATE_LIMIT", 100),
		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		UsageCacheTTL:    getEnvDuration("USAGE_CACHE_TTL", 30*time.Second),
	}

	return cfg, nil
}

// Validate checks that the configuration is complete enough to run the gateway.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.RateLimitBackend != "memory" && c.RateLimitBackend != "redis" {
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", "memory", "redis", c.RateLimitBackend)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
