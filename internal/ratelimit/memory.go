package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window counter held in process memory. Limits are
// enforced per process; run the redis backend instead when the gateway is
// deployed with more than one instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter with the given window duration.
func NewMemoryLimiter(windowDur time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		window:  windowDur,
		now:     time.Now,
	}
}

// Check increments the counter for keyID and decides whether the request is
// within the limit. The first request of an elapsed or missing window starts
// a fresh window with count 1.
func (l *MemoryLimiter) Check(_ context.Context, keyID string, limit int) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[keyID]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.window)}
		l.windows[keyID] = w
		return Decision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= limit {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Decision{Allowed: true, Limit: limit, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}

// RunJanitor evicts expired windows on a ticker until the context is done.
func (l *MemoryLimiter) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.evictStale()
		}
	}
}

func (l *MemoryLimiter) evictStale() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for keyID, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, keyID)
		}
	}
}
