// Package ristretto implements the cache port using dgraph-io/ristretto as
// the in-process memory backend.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// envelope carries the write timestamp so freshness can be judged against
// the reader's ttl, matching the file backend's semantics.
type envelope struct {
	ts    float64
	value []byte
}

// Cache wraps a ristretto cache as an in-process memory cache.
type Cache struct {
	c   *ristretto.Cache[string, envelope]
	now func() time.Time
}

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, envelope]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, now: time.Now}, nil
}

// Get retrieves a value written less than ttl ago. An expired entry is
// dropped on read.
func (c *Cache) Get(_ context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	e, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	if c.nowUnix()-e.ts >= ttl.Seconds() {
		c.c.Del(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a value stamped with the current time. The write is waited on
// so an immediately following Get sees it.
func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	e := envelope{ts: c.nowUnix(), value: append([]byte(nil), value...)}
	c.c.Set(key, e, int64(len(value)))
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.c.Clear()
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}

func (c *Cache) nowUnix() float64 {
	return float64(c.now().UnixNano()) / float64(time.Second)
}
