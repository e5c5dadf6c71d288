package flights

import (
	"sync"
	"time"
)

// ResultCache is a single-slot cache with a fixed TTL. There is no history
// and no eviction beyond overwriting the slot.
type ResultCache[T any] struct {
	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	filled    bool
	ttl       time.Duration
	now       func() time.Time
}

// NewResultCache creates an empty cache. A nil clock means time.Now.
func NewResultCache[T any](ttl time.Duration, now func() time.Time) *ResultCache[T] {
	if now == nil {
		now = time.Now
	}
	return &ResultCache[T]{ttl: ttl, now: now}
}

// Get returns the slot only while now - fetchedAt < TTL
func (c *ResultCache[T]) Get() (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	if !c.filled || c.now().Sub(c.fetchedAt) >= c.ttl {
		return zero, time.Time{}, false
	}
	return c.value, c.fetchedAt, true
}

// Last returns the slot regardless of age
func (c *ResultCache[T]) Last() (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.fetchedAt, c.filled
}

// Set overwrites the slot and stamps it with the current time
func (c *ResultCache[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.fetchedAt = c.now()
	c.filled = true
}

// TTL returns the cache lifetime
func (c *ResultCache[T]) TTL() time.Duration {
	return c.ttl
}
