// Package dialog implements the conversational workflows of the concierge
// bot: house registration, resident sign-up, vehicle registration, neighbor
// search, the account and parking areas and the main menu.
package dialog

import "sync"

// Cache is a per-user staging store. Workflows keep dialog states and draft
// entities in caches keyed by user id.
type Cache[V any] interface {
	Get(key int64) (V, bool)
	Set(key int64, value V)
	Remove(key int64)
}

// MemoryCache is the in-process Cache used in production and tests.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[int64]V
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{entries: make(map[int64]V)}
}

func (c *MemoryCache[V]) Get(key int64) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *MemoryCache[V]) Set(key int64, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *MemoryCache[V]) Remove(key int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
