package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry represents a cached value with expiration
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// Cache is an in-process byte cache with per-key TTL
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Entry
	now   func() time.Time
}

// New creates a new cache
func New() *Cache {
	return &Cache{items: map[string]*Entry{}, now: time.Now}
}

// Set stores a value with a TTL. A non-positive TTL keeps the value until deleted.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &Entry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = c.now().Add(ttl)
	}
	c.items[key] = entry
}

// Get returns a value if present and not expired
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, exists := c.items[key]
	if !exists || c.expired(entry) {
		return nil, false
	}
	return entry.Value, true
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Invalidate removes all items matching a prefix
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Sweep drops expired entries and returns how many were removed
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.items {
		if c.expired(entry) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) expired(entry *Entry) bool {
	return !entry.ExpiresAt.IsZero() && c.now().After(entry.ExpiresAt)
}
