// Package cache holds fetched API payloads for a fixed time-to-live.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of keys kept at once. Per-repository
// lookups add one key each, so the bound keeps memory flat.
const DefaultCapacity = 256

type entry struct {
	value    any
	storedAt time.Time
	seq      uint64
}

// Cache is an in-memory TTL cache. An entry is valid while its age is
// strictly less than the TTL; stale entries are evicted on lookup.
// It is safe for concurrent use.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *lru.Cache[string, entry]

	// mu orders writes against stale-entry removal. seq identifies the
	// write an entry came from.
	mu  sync.Mutex
	seq uint64
}

type Option func(*options)

type options struct {
	now      func() time.Time
	capacity int
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	o := options{now: time.Now, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity <= 0 {
		o.capacity = DefaultCapacity
	}

	// lru.New only fails on a non-positive size, which is ruled out above.
	entries, _ := lru.New[string, entry](o.capacity)

	return &Cache{ttl: ttl, now: o.now, entries: entries}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.Sub(e.storedAt) < c.ttl {
		return e.value, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A Set may have replaced the stale entry since it was read.
	cur, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	if cur.seq == e.seq {
		c.entries.Remove(key)
		return nil, false
	}
	if now.Sub(cur.storedAt) < c.ttl {
		return cur.value, true
	}
	return nil, false
}

// Set overwrites whatever is stored under key and restarts its TTL.
func (c *Cache) Set(key string, value any) {
	storedAt := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.entries.Add(key, entry{value: value, storedAt: storedAt, seq: c.seq})
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) Purge() {
	c.entries.Purge()
}
