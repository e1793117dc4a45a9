package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(windowDur time.Duration) (*MemoryLimiter, *time.Time) {
	l := NewMemoryLimiter(windowDur)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiterAllowsWithinQuota(t *testing.T) {
	l, _ := newTestLimiter(time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Check(ctx, "key-1", 3)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}
}

func TestMemoryLimiterDeniesOverQuota(t *testing.T) {
	l, now := newTestLimiter(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Check(ctx, "key-1", 2)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := l.Check(ctx, "key-1", 2)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Greater(t, d.RetryAfter(*now), 0)
	assert.LessOrEqual(t, d.RetryAfter(*now), 3600)
}

func TestMemoryLimiterResetsAfterWindow(t *testing.T) {
	l, now := newTestLimiter(time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Check(ctx, "key-1", 2)
	}

	*now = now.Add(time.Hour + time.Second)

	d, err := l.Check(ctx, "key-1", 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestMemoryLimiterIsolatesKeys(t *testing.T) {
	l, _ := newTestLimiter(time.Hour)
	ctx := context.Background()

	l.Check(ctx, "key-1", 1)
	d, err := l.Check(ctx, "key-2", 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterEvictStale(t *testing.T) {
	l, now := newTestLimiter(time.Hour)
	ctx := context.Background()

	l.Check(ctx, "key-1", 5)
	l.Check(ctx, "key-2", 5)
	require.Len(t, l.windows, 2)

	*now = now.Add(2 * time.Hour)
	l.evictStale()
	assert.Empty(t, l.windows)
}

func TestDecisionRetryAfterFloor(t *testing.T) {
	d := Decision{ResetAt: time.Now().Add(-time.Second)}
	assert.Equal(t, 1, d.RetryAfter(time.Now()))
}
