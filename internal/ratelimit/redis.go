package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter is a fixed-window counter backed by a shared redis instance,
// so the limit holds across gateway replicas.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisLimiter connects to redis and returns a limiter with the given
// window duration.
func NewRedisLimiter(ctx context.Context, redisURL string, windowDur time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisLimiter{client: client, window: windowDur}, nil
}

// Close closes the underlying redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Check atomically increments the window counter for keyID. The key expires
// with the window, so stale counters clean themselves up.
func (l *RedisLimiter) Check(ctx context.Context, keyID string, limit int) (Decision, error) {
	key := fmt.Sprintf("ratelimit:%s", keyID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("set rate limit expiry: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("read rate limit ttl: %w", err)
	}
	ttl, rearm := repairTTL(ttl, l.window)
	if rearm {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("re-arm rate limit expiry: %w", err)
		}
	}
	resetAt := time.Now().Add(ttl)

	if int(count) > limit {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Decision{Allowed: true, Limit: limit, Remaining: limit - int(count), ResetAt: resetAt}, nil
}

// repairTTL resolves the ttl to report for a counter key. A negative ttl
// means the key has no expiry, which happens when the process died between
// INCR and EXPIRE; such a key must be re-armed or its window never resets.
func repairTTL(ttl, window time.Duration) (time.Duration, bool) {
	if ttl < 0 {
		return window, true
	}
	return ttl, false
}
