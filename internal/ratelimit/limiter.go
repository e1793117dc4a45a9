// Package ratelimit enforces per-key request quotas over a fixed window.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window resets, at least 1
// for a denied request so Retry-After is always positive.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter checks and increments a fixed-window request counter for a key.
// Implementations must treat the check-and-increment as a single operation.
type Limiter interface {
	Check(ctx context.Context, keyID string, limit int) (Decision, error)
}
