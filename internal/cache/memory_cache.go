package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryCache is the in-process CredentialCache
type MemoryCache struct {
	entries map[string]string
	mutex   sync.RWMutex
	// Stats tracking
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

// Get returns the digest cached for hash
func (c *MemoryCache) Get(_ context.Context, hash string) (string, bool) {
	c.mutex.RLock()
	digest, ok := c.entries[hash]
	c.mutex.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return digest, ok
}

// Set stores digest for hash
func (c *MemoryCache) Set(_ context.Context, hash, digest string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[hash] = digest
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	c.mutex.RLock()
	n := len(c.entries)
	c.mutex.RUnlock()
	return Stats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}
