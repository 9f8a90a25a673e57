// Package cache provides a thread-safe in-memory TTL cache for
// catalog snapshots, so the full catalog is read from the store at
// most once per TTL window rather than once per receipt.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// cacheItem is a catalog snapshot with its expiration time.
type cacheItem struct {
	entries    []domain.CatalogEntry
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache and starts a background
// sweep that drops expired snapshots every 10 minutes.
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a catalog snapshot from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]domain.CatalogEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	// Copy so callers cannot mutate the cached snapshot.
	entries := make([]domain.CatalogEntry, len(item.entries))
	copy(entries, item.entries)
	return entries, nil
}

// Set stores a catalog snapshot with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, entries []domain.CatalogEntry, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stored := make([]domain.CatalogEntry, len(entries))
	copy(stored, entries)

	c.data[key] = cacheItem{
		entries:    stored,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a snapshot from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// cleanupExpired removes expired entries from the cache periodically.
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}

// Size returns the current number of snapshots (for debugging).
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}
