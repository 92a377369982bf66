// Package memo provides a cache-aside memoizer over the cache port. A
// Memoizer binds one cache namespace to one freshness policy; the generic
// Do helper wraps any lookup so repeated calls inside the ttl never reach
// the underlying API. Errors are never cached.
package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Strob0t/MediaScout/internal/port/cache"
)

// Memoizer pairs a cache backend with the ttl fixed at wrap time.
type Memoizer struct {
	cache cache.Cache
	ttl   time.Duration
}

// New creates a memoizer reading entries no older than ttl.
func New(c cache.Cache, ttl time.Duration) *Memoizer {
	return &Memoizer{cache: c, ttl: ttl}
}

// TTL returns the freshness policy fixed at construction.
func (m *Memoizer) TTL() time.Duration { return m.ttl }

// Key builds the deterministic cache key for a named call: the name, the
// positional arguments in order, and the keyword arguments sorted by key.
// Two calls with the same inputs always produce the same key.
func Key(name string, args []any, kwargs map[string]any) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(':')
	for i, a := range args {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprint(&b, a)
	}
	b.WriteByte(':')
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%v", k, kwargs[k])
	}
	return b.String()
}

// Do answers from the cache when it can, otherwise invokes fn and stores
// its result. A failing fn is returned as-is and nothing is stored, so the
// next call retries. A cache write failure is logged, never surfaced: the
// fresh result is still correct.
func Do[T any](ctx context.Context, m *Memoizer, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok, err := m.cache.Get(ctx, key, m.ttl); err == nil && ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		// Corrupt entry: drop it and fall through to a fresh call.
		_ = m.cache.Delete(ctx, key)
	}

	v, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("memo: result not cacheable", "key", key, "error", err)
		return v, nil
	}
	if err := m.cache.Set(ctx, key, raw); err != nil {
		slog.Warn("memo: cache write failed", "key", key, "error", err)
	}
	return v, nil
}
