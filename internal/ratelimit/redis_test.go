package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepairTTL(t *testing.T) {
	window := time.Hour

	// Healthy key: report the remaining ttl, leave the expiry alone.
	ttl, rearm := repairTTL(30*time.Minute, window)
	assert.Equal(t, 30*time.Minute, ttl)
	assert.False(t, rearm)

	// TTL -1: key exists without an expiry; must be re-armed for a full window.
	ttl, rearm = repairTTL(-1*time.Second, window)
	assert.Equal(t, window, ttl)
	assert.True(t, rearm)

	// TTL -2 (key missing, e.g. expired between INCR and TTL): also re-arm.
	ttl, rearm = repairTTL(-2*time.Second, window)
	assert.Equal(t, window, ttl)
	assert.True(t, rearm)
}

func TestNewRedisLimiter_InvalidURL(t *testing.T) {
	_, err := NewRedisLimiter(context.Background(), "not-a-url", time.Hour)
	assert.Error(t, err)
}
