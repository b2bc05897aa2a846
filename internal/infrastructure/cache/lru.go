package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/foodlens/backend/internal/domain"
)

const defaultLRUSize = 1024

// LRUCache is a size-bounded cache with per-item TTL.
// The least recently used item is evicted when full.
type LRUCache struct {
	items *lru.Cache
}

// NewLRUCache creates a cache holding at most size items
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	items, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{items: items}, nil
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(ctx context.Context, key string) (interface{}, error) {
	raw, ok := c.items.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	item := raw.(cacheItem)
	if item.expired(time.Now()) {
		c.items.Remove(key)
		return nil, domain.ErrCacheMiss
	}
	return item.Value, nil
}

// Set stores a value in the cache with TTL
func (c *LRUCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	stored, err := roundTrip(value)
	if err != nil {
		return err
	}

	c.items.Add(key, cacheItem{
		Value:      stored,
		Expiration: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes a value from the cache
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.items.Remove(key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *LRUCache) Exists(ctx context.Context, key string) (bool, error) {
	raw, ok := c.items.Peek(key)
	if !ok {
		return false, nil
	}
	return !raw.(cacheItem).expired(time.Now()), nil
}

// Size returns the current number of items in the cache
func (c *LRUCache) Size() int {
	return c.items.Len()
}
