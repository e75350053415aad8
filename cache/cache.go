// Package cache memoizes values per key with an optional time to live.
//
// Values are handed out as *T pointing at a value that is never mutated after
// it is added, so the same handle can be shared by any number of readers.
// Expired entries are not swept; a later Add for the same key replaces them.
package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Expire tells Add how long an entry stays valid.
type Expire struct {
	d     time.Duration
	never bool
}

// Never keeps an entry until it is removed.
var Never = Expire{never: true}

// After keeps an entry for d after it is added.
func After(d time.Duration) Expire {
	return Expire{d: d}
}

// IsNever reports whether e never expires.
func (e Expire) IsNever() bool { return e.never }

// Duration returns the time to live; zero for Never.
func (e Expire) Duration() time.Duration { return e.d }

func (e Expire) String() string {
	if e.never {
		return "never"
	}
	return e.d.String()
}

// Observer is told about hits and misses. It must not block.
type Observer interface {
	Hit(key string)
	Miss(key string)
}

type entry[T any] struct {
	value    *T
	added    time.Time
	expireAt time.Time
	never    bool
}

func (e entry[T]) valid(now time.Time) bool {
	return e.never || !now.After(e.expireAt)
}

// Cache is safe for concurrent use. The zero value is not usable; call New or
// NonCaching.
type Cache[T any] struct {
	mu       sync.RWMutex
	entries  map[string]entry[T]
	caching  bool
	now      func() time.Time
	observer Observer

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	now      func() time.Time
	observer Observer
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithObserver reports hits and misses to o.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// New returns a caching Cache.
func New[T any](opts ...Option) *Cache[T] {
	return newCache[T](true, opts)
}

// NonCaching returns a Cache that stores nothing: Get always misses and Add
// returns a fresh handle.
func NonCaching[T any](opts ...Option) *Cache[T] {
	return newCache[T](false, opts)
}

func newCache[T any](caching bool, opts []Option) *Cache[T] {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[T]{
		entries:  make(map[string]entry[T]),
		caching:  caching,
		now:      cfg.now,
		observer: cfg.observer,
	}
}

// Caching reports whether the cache keeps values.
func (c *Cache[T]) Caching() bool { return c.caching }

// Get returns the value for key if it is present and not expired.
func (c *Cache[T]) Get(key string) (*T, bool) {
	if !c.caching {
		c.miss(key)
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !e.valid(c.now()) {
		c.miss(key)
		return nil, false
	}
	c.hit(key)
	return e.value, true
}

// Add stores value under key and returns the shared handle to it.
func (c *Cache[T]) Add(key string, value T, exp Expire) *T {
	v := &value
	if !c.caching {
		return v
	}
	now := c.now()
	e := entry[T]{value: v, added: now, never: exp.never}
	if !exp.never {
		e.expireAt = now.Add(exp.d)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return v
}

// GetOr returns the cached value for key or calls gen, caches its result and
// returns it. gen runs without holding the lock, so concurrent misses on the
// same key may each call it; the last Add wins. On error nothing is stored.
func (c *Cache[T]) GetOr(key string, exp Expire, gen func() (T, error)) (*T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	value, err := gen()
	if err != nil {
		return nil, err
	}
	return c.Add(key, value, exp), nil
}

// Remove drops key.
func (c *Cache[T]) Remove(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// RemovePrefix drops every key starting with prefix and returns how many.
func (c *Cache[T]) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Purge drops everything.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats is a point in time view of the cache counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
	Expired int
}

// Stats returns the hit and miss counters and entry counts.
func (c *Cache[T]) Stats() Stats {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: len(c.entries),
	}
	for _, e := range c.entries {
		if !e.valid(now) {
			s.Expired++
		}
	}
	return s
}

// EntryInfo describes one stored entry.
type EntryInfo struct {
	Key      string
	Added    time.Time
	ExpireAt time.Time
	Never    bool
	Expired  bool
}

// Entries lists the stored entries without their values.
func (c *Cache[T]) Entries() []EntryInfo {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]EntryInfo, 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, EntryInfo{
			Key:      k,
			Added:    e.added,
			ExpireAt: e.expireAt,
			Never:    e.never,
			Expired:  !e.valid(now),
		})
	}
	return out
}

func (c *Cache[T]) hit(key string) {
	c.hits.Add(1)
	if c.observer != nil {
		c.observer.Hit(key)
	}
}

func (c *Cache[T]) miss(key string) {
	c.misses.Add(1)
	if c.observer != nil {
		c.observer.Miss(key)
	}
}
