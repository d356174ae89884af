// Package ristretto implements the cache port with an in-process dgraph-io/ristretto cache (L1).
package ristretto

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/CaterTrack/internal/port/cache"
)

// avgEntryBytes sizes the admission counters: menus and profiles are a few KB each.
const avgEntryBytes = 2 << 10

// Cache is an L1 cache keyed by tenant-scoped strings. Writes are made
// visible before Set returns so a read right after an invalidating write
// never sees a stale entry from the write buffer.
type Cache struct {
	c          *ristretto.Cache[string, []byte]
	defaultTTL time.Duration
}

var _ cache.Cache = (*Cache)(nil)

// New creates a cache bounded to maxSizeMB megabytes of values. A zero ttl
// passed to Set falls back to defaultTTL.
func New(maxSizeMB int64, defaultTTL time.Duration) (*Cache, error) {
	maxCost := maxSizeMB << 20
	if maxCost <= 0 {
		return nil, fmt.Errorf("ristretto: max size must be positive, got %d MB", maxSizeMB)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCost/avgEntryBytes*10, 1000),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Cache{c: c, defaultTTL: defaultTTL}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	c.c.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
