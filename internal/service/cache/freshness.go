package cache

import (
	"sync"
	"time"

	"PanelPulse/internal/domain/models"
)

type entry struct {
	m        *models.TradingMetrics
	cachedAt time.Time
	lastUsed time.Time
}

// FreshnessCache is a time-boxed metrics cache in front of the store. An
// entry older than TTL is never returned as fresh. Entries are removed
// lazily on read, in bulk via Sweep, or by LRU eviction once maxSize is hit.
type FreshnessCache struct {
	mu      sync.RWMutex
	m       map[string]*entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// Option configures FreshnessCache.
type Option func(*FreshnessCache)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *FreshnessCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxSize caps the number of entries; oldest-used entries are evicted.
func WithMaxSize(n int) Option {
	return func(c *FreshnessCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *FreshnessCache) { c.now = now }
}

// New creates a FreshnessCache with a 5 minute TTL and a 10k entry cap.
func New(opts ...Option) *FreshnessCache {
	c := &FreshnessCache{
		m:       make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a snapshot of the cached metrics if still within TTL.
func (c *FreshnessCache) Get(entityID string) (*models.TradingMetrics, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.m[entityID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now.Sub(e.cachedAt) >= c.ttl {
		c.mu.Lock()
		delete(c.m, entityID)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	e.lastUsed = now
	snap := e.m.Clone()
	c.mu.Unlock()
	return snap, true
}

// Set stores a snapshot. Called write-through, only after a successful
// store write, so the cache never runs ahead of durable state.
func (c *FreshnessCache) Set(entityID string, m *models.TradingMetrics) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[entityID]; !exists && len(c.m) >= c.maxSize {
		c.evictOldest()
	}
	c.m[entityID] = &entry{m: m.Clone(), cachedAt: now, lastUsed: now}
}

// Invalidate drops an entry eagerly.
func (c *FreshnessCache) Invalidate(entityID string) {
	c.mu.Lock()
	delete(c.m, entityID)
	c.mu.Unlock()
}

// Sweep removes every expired entry and reports how many were dropped.
// Invoked once per scheduler tick to bound memory growth.
func (c *FreshnessCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for k, e := range c.m {
		if now.Sub(e.cachedAt) >= c.ttl {
			delete(c.m, k)
			dropped++
		}
	}
	return dropped
}

// Len reports the current entry count, for operational introspection.
func (c *FreshnessCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// caller holds c.mu
func (c *FreshnessCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.m {
		if first || e.lastUsed.Before(oldestTime) {
			oldestKey, oldestTime = k, e.lastUsed
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.m, oldestKey)
	}
}
