// Package cachex holds a single value for a fixed time-to-live and keeps the
// last good value around so callers can fall back to it when a refresh fails.
package cachex

import (
	"context"
	"sync"
	"time"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a TTL cache for one value of type T.
//
// The mutex only guards memory access. Refreshes are not coordinated: two
// callers that both observe an expired value will both fetch and the last
// Set wins.
type Cache[T any] struct {
	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	has       bool

	ttl time.Duration
	now func() time.Time
}

// New returns an empty cache whose values expire after ttl.
func New[T any](ttl time.Duration, opts ...Option) *Cache[T] {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &Cache[T]{ttl: ttl, now: o.now}
}

// Peek returns the stored value and when it was stored, regardless of age.
func (c *Cache[T]) Peek() (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.fetchedAt, c.has
}

// Fresh returns the stored value only if it is younger than the TTL.
func (c *Cache[T]) Fresh() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.has || c.now().Sub(c.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Set stores v and resets its age.
func (c *Cache[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.fetchedAt = c.now()
	c.has = true
}

// Load returns the fresh value, or calls fetch and stores its result.
//
// When fetch fails and an older value exists, that value is returned with
// stale set to true and the fetch error alongside it; callers decide whether
// stale data is acceptable. Without an older value only the error is returned.
func (c *Cache[T]) Load(ctx context.Context, fetch func(ctx context.Context) (T, error)) (value T, stale bool, err error) {
	if v, ok := c.Fresh(); ok {
		return v, false, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		if old, _, ok := c.Peek(); ok {
			return old, true, err
		}
		var zero T
		return zero, false, err
	}

	c.Set(v)
	return v, false, nil
}
