package cache

import (
	"context"
	"sync"
	"time"
)

// TTLCache implements ResponseCache with in-process time-based expiration.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	maxEntries int64
	hits       int64
	misses     int64

	stopCh   chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	value    []byte
	expires  time.Time
	accessed time.Time
}

// NewTTLCache creates a TTL cache bounded to maxEntries and starts its
// background sweep.
func NewTTLCache(maxEntries int64) *TTLCache {
	c := &TTLCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get retrieves a value if present and unexpired.
func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		c.misses++
		return nil, false, nil
	}

	entry.accessed = time.Now()
	c.hits++
	return entry.value, true, nil
}

// Set stores a value with its TTL, evicting the least recently used entry
// when the cache is full.
func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if int64(len(c.entries)) >= c.maxEntries {
		c.evictLRU()
	}

	c.entries[key] = &cacheEntry{
		value:    value,
		expires:  time.Now().Add(ttl),
		accessed: time.Now(),
	}
	return nil
}

// Clear removes all entries.
func (c *TTLCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	return nil
}

// Stats returns hit/miss counters and the live entry count.
func (c *TTLCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: int64(len(c.entries)),
	}
}

// Stop shuts down the sweep goroutine.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// evictLRU removes the least recently accessed entry. Caller holds the
// write lock.
func (c *TTLCache) evictLRU() {
	var oldestKey string
	oldest := time.Now()

	for key, entry := range c.entries {
		if entry.accessed.Before(oldest) {
			oldest = entry.accessed
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *TTLCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *TTLCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
}
