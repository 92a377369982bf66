// Package tiered implements a two-level (L1 + L2) cache adapter.
package tiered

import (
	"context"
	"time"

	"github.com/Strob0t/MediaScout/internal/port/cache"
)

// clearer is the subset of maintenance L1 backends are expected to support.
type clearer interface {
	Clear(ctx context.Context) error
}

// Cache combines an L1 (in-process) and L2 (durable) cache.
// Get checks L1 first, then L2, backfilling L1 on an L2 hit. A backfilled
// entry restarts its age in L1, so reads there are capped at l1TTL: a value
// can overstay its true age by at most l1TTL, never the caller's full ttl.
type Cache struct {
	l1    cache.Cache
	l2    cache.Cache
	l1TTL time.Duration
}

var _ cache.Cache = (*Cache)(nil)

// New creates a tiered cache. l1TTL bounds how long L1 may serve an entry
// before re-consulting L2.
func New(l1, l2 cache.Cache, l1TTL time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1TTL: l1TTL}
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	val, found, err := c.l1.Get(ctx, key, min(ttl, c.l1TTL))
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key, ttl)
	if err != nil {
		return nil, false, err
	}
	if found {
		_ = c.l1.Set(ctx, key, val)
		return val, true, nil
	}

	return nil, false, nil
}

// Set writes to both levels.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.l1.Set(ctx, key, value); err != nil {
		return err
	}
	return c.l2.Set(ctx, key, value)
}

// Delete removes from both levels.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	return c.l2.Delete(ctx, key)
}

// Clear empties both levels when they support it.
func (c *Cache) Clear(ctx context.Context) error {
	if cl, ok := c.l1.(clearer); ok {
		if err := cl.Clear(ctx); err != nil {
			return err
		}
	}
	if cl, ok := c.l2.(clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

// CleanupExpired sweeps the durable level; L1 entries age out on their own.
func (c *Cache) CleanupExpired(ctx context.Context, ttl time.Duration) (int, error) {
	if m, ok := c.l2.(cache.Maintainer); ok {
		return m.CleanupExpired(ctx, ttl)
	}
	return 0, nil
}

// Stats reports the durable level's stats under the tiered label.
func (c *Cache) Stats(ctx context.Context) (cache.Stats, error) {
	if m, ok := c.l2.(cache.Maintainer); ok {
		s, err := m.Stats(ctx)
		if err != nil {
			return cache.Stats{}, err
		}
		s.Backend = "tiered:" + s.Backend
		return s, nil
	}
	return cache.Stats{Backend: "tiered"}, nil
}
