// Package cache provides response caching for catalog fetches, keyed by the
// per-browser cache-identity token.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Entry represents a cached catalog response body.
type Entry struct {
	Body     []byte
	CachedAt time.Time
	TTL      time.Duration
}

// IsExpired checks if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.CachedAt.Add(e.TTL))
}

// Stats holds cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// ResponseCache is a thread-safe in-memory cache with TTL expiry and LRU
// eviction. Keys combine the browser's cache-identity token with the request
// path and query, so entries never leak across browsers.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // LRU eviction order, oldest first
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64
}

// NewResponseCache creates a new response cache with the given capacity and
// default TTL.
func NewResponseCache(maxSize int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]*Entry),
		order:   make([]string, 0),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Key builds a cache key from the browser identity token and the request.
func Key(identityToken, pathAndQuery string) string {
	return identityToken + ":" + pathAndQuery
}

// Get retrieves a cached body by key. Expired entries are dropped on read.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	if entry.IsExpired() {
		c.Delete(key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return entry.Body, true
}

// Set stores a response body. At capacity, the oldest entry is evicted.
func (c *ResponseCache) Set(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.removeFromOrder(key)
	} else if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &Entry{
		Body:     body,
		CachedAt: time.Now(),
		TTL:      c.ttl,
	}
	c.order = append(c.order, key)
}

// Delete removes a cache entry.
func (c *ResponseCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	c.removeFromOrder(key)
}

// Stats returns a snapshot of cache statistics.
func (c *ResponseCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Size:   len(c.entries),
	}
}

func (c *ResponseCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
