package core

import (
	"sync"
	"time"
)

// statsCache is a small TTL cache in front of the aggregate usage queries.
// The dashboard polls them frequently and slightly stale numbers are fine.
type statsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]statsEntry
	now     func() time.Time
}

type statsEntry struct {
	value     any
	expiresAt time.Time
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{
		ttl:     ttl,
		entries: make(map[string]statsEntry),
		now:     time.Now,
	}
}

func (c *statsCache) get(key string) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *statsCache) set(key string, value any) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = statsEntry{value: value, expiresAt: c.now().Add(c.ttl)}
}
