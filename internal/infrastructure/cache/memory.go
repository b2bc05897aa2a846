package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/foodlens/backend/internal/domain"
)

const defaultCleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return now.After(i.Expiration)
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored JSON round-tripped, so readers see maps and slices of interface{}.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithCleanup(defaultCleanupInterval)
}

// NewMemoryCacheWithCleanup creates a cache that purges expired items every interval
func NewMemoryCacheWithCleanup(interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	c := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}
	go c.cleanupExpired(interval)
	return c
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || item.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}
	return item.Value, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	stored, err := roundTrip(value)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Value:      stored,
		Expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	return exists && !item.expired(time.Now()), nil
}

// Close stops the cleanup loop
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries until Close is called
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mutex.Lock()
			for key, item := range c.data {
				if item.expired(now) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// roundTrip serializes value to JSON and back so cached values look the same
// regardless of backend
func roundTrip(value interface{}) (interface{}, error) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var stored interface{}
	if err := json.Unmarshal(jsonData, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}
