package cache

import (
	"context"
	"sync"
	"time"
)

// entry holds one cached payload and its expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a concurrency-safe in-memory Cache with per-entry expiry.
type MemoryCache struct {
	mu sync.RWMutex

	// key: cache key, value: payload
	data map[string]entry

	// maxEntries bounds the map; 0 = unlimited
	maxEntries int

	now func() time.Time
}

// NewMemoryCache creates a MemoryCache.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the payload for key if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key for ttl and enforces the entry bound.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.data[key] = entry{value: value, expiresAt: now.Add(ttl)}

	if c.maxEntries > 0 && len(c.data) > c.maxEntries {
		c.sweepLocked(now)
	}
	// Still over the bound: drop the entries closest to expiry.
	for c.maxEntries > 0 && len(c.data) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.data {
			if k == key {
				continue
			}
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey = k
				oldest = e.expiresAt
			}
		}
		if oldestKey == "" {
			break
		}
		delete(c.data, oldestKey)
	}
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range c.data {
		if !now.Before(e.expiresAt) {
			delete(c.data, k)
			n++
		}
	}
	return n
}
