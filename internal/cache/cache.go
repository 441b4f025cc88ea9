package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Where a value returned by GetOrFetch came from.
const (
	SourceCache = "cache"
	SourceChain = "chain"
)

type item[V any] struct {
	val       V
	expiresAt time.Time
}

// Cache provides a TTL cache with singleflight coalescing per key.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	gens  map[string]uint64 // bumped by Invalidate
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		items: make(map[string]item[V]),
		gens:  make(map[string]uint64),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the value under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || !c.now().Before(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.val, true
}

// GetOrFetch returns a cached value if valid; otherwise it coalesces concurrent
// fetches for the same key using singleflight and stores the result.
// Returns the value, its source (SourceCache or SourceChain), and the fetch error.
// A fetch that overlaps an Invalidate of its key is returned but not stored.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, string, error) {
	if v, ok := c.Get(key); ok {
		return v, SourceCache, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		gen := c.gens[key]
		c.mu.RUnlock()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen {
			c.items[key] = item[V]{val: v, expiresAt: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, "", err
	}
	return res.(V), SourceChain, nil
}

func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.items[key] = item[V]{val: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops key so the next read goes to the source.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// Len returns the number of items in the cache, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
