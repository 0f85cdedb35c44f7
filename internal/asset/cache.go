package asset

import "sync"

// Cache is a concurrency-safe cache of decoded models keyed by asset path.
// Failed loads are not cached so a later attempt can succeed.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Model
}

// NewCache creates an empty model cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]*Model)}
}

// Get returns a cached model.
func (c *Cache) Get(path string) (*Model, bool) {
	c.mu.RLock()
	m, ok := c.items[path]
	c.mu.RUnlock()
	return m, ok
}

// Resolve returns the cached model or runs load and caches its result.
// Two concurrent misses may both load; the first stored result wins.
func (c *Cache) Resolve(path string, load func() (*Model, error)) (*Model, error) {
	// Fast path: read lock
	if m, ok := c.Get(path); ok {
		return m, nil
	}

	// Slow path: load outside the lock
	m, err := load()
	if err != nil {
		return nil, err
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[path]; ok {
		return existing, nil
	}
	c.items[path] = m
	return m, nil
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
