// Package natskv implements the cache port using NATS JetStream KV as a
// shared remote cache backend. Entry age comes from the KV revision's
// creation time, so the reader-supplied ttl works without an envelope.
package natskv

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/MediaScout/internal/port/cache"
)

// Cache wraps a NATS JetStream KeyValue store.
type Cache struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

var _ cache.Cache = (*Cache)(nil)
var _ cache.Maintainer = (*Cache)(nil)

// New creates a NATS KV-backed cache.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

// Get retrieves a value written less than ttl ago. Expired entries are
// deleted on read.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if c.now().Sub(entry.Created()) >= ttl {
		_ = c.kv.Delete(ctx, key)
		return nil, false, nil
	}
	return entry.Value(), true, nil
}

// Set stores a value in the NATS KV store.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.kv.Put(ctx, key, value)
	return err
}

// Delete removes a value from the NATS KV store.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Clear purges every key in the bucket.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.listKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.kv.Purge(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// CleanupExpired deletes entries older than ttl and reports how many.
func (c *Cache) CleanupExpired(ctx context.Context, ttl time.Duration) (int, error) {
	keys, err := c.listKeys(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, k := range keys {
		entry, err := c.kv.Get(ctx, k)
		if err != nil {
			continue
		}
		if c.now().Sub(entry.Created()) >= ttl {
			if err := c.kv.Delete(ctx, k); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats reports the live key count.
func (c *Cache) Stats(ctx context.Context) (cache.Stats, error) {
	keys, err := c.listKeys(ctx)
	if err != nil {
		return cache.Stats{}, err
	}
	return cache.Stats{Entries: len(keys), Backend: "nats"}, nil
}

func (c *Cache) listKeys(ctx context.Context) ([]string, error) {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	defer lister.Stop()

	var keys []string
	for k := range lister.Keys() {
		keys = append(keys, k)
	}
	return keys, nil
}
