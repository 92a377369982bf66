// Package filecache implements the cache port as a persistent JSON file:
// one object per file mapping key -> [unix-epoch-seconds, value]. The file
// survives process restarts and is shared by every component that caches
// API results, so load is deliberately forgiving and writes are debounced.
package filecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Strob0t/MediaScout/internal/port/cache"
)

// DefaultDebounce is the minimum interval between non-forced disk flushes.
const DefaultDebounce = time.Second

type entry struct {
	ts    float64
	value json.RawMessage
}

// Cache is a mutex-guarded in-memory map backed by one JSON file. Disk I/O
// failures degrade it to memory-only: they are logged, never returned, and
// the in-memory map stays the source of truth for the process lifetime.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]entry
	path      string
	debounce  time.Duration
	dirty     bool
	lastFlush time.Time

	now func() time.Time
}

var _ cache.Cache = (*Cache)(nil)
var _ cache.Maintainer = (*Cache)(nil)

// New opens (or eagerly creates) the cache file at path. A zero debounce
// means DefaultDebounce. Construction fails only when the parent directory
// cannot be created; an unreadable or corrupt file resets to empty.
func New(path string, debounce time.Duration) (*Cache, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{
		entries:  make(map[string]entry),
		path:     path,
		debounce: debounce,
		now:      time.Now,
	}
	c.load()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// First run: create the file so its presence is never ambiguous.
		c.flush()
	}
	return c, nil
}

// Get returns the value under key if it was written less than ttl ago.
// An expired entry is evicted as a side effect of the read; the eviction
// is persisted on the debounced schedule, not immediately.
func (c *Cache) Get(_ context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.nowUnix()-e.ts >= ttl.Seconds() {
		delete(c.entries, key)
		c.dirty = true
		c.save(false)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set upserts (now, value) under key and always force-flushes, so a
// short-lived process loses at most the evictions of its last second.
// The value must be a valid JSON document.
func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("filecache: value for %q is not valid JSON", key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{ts: c.nowUnix(), value: append([]byte(nil), value...)}
	c.dirty = true
	c.save(true)
	return nil
}

// Delete removes key and force-flushes if it was present.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return nil
	}
	delete(c.entries, key)
	c.dirty = true
	c.save(true)
	return nil
}

// Clear drops every entry and force-flushes.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.dirty = true
	c.save(true)
	return nil
}

// CleanupExpired sweeps entries older than ttl and force-flushes only when
// the sweep removed something.
func (c *Cache) CleanupExpired(_ context.Context, ttl time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowUnix()
	removed := 0
	for k, e := range c.entries {
		if now-e.ts >= ttl.Seconds() {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.dirty = true
		c.save(true)
	}
	return removed, nil
}

// Stats reports the live entry count and on-disk footprint.
func (c *Cache) Stats(_ context.Context) (cache.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := cache.Stats{
		Entries: len(c.entries),
		Path:    c.path,
		Dirty:   c.dirty,
		Backend: "file",
	}
	if fi, err := os.Stat(c.path); err == nil {
		s.SizeBytes = fi.Size()
	}
	return s, nil
}

// Close force-flushes any pending state. Safe to call multiple times.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty {
		c.flush()
	}
	return nil
}

func (c *Cache) nowUnix() float64 {
	return float64(c.now().UnixNano()) / float64(time.Second)
}

// save persists the map if forced, or if the debounce window has elapsed
// since the last flush. Callers must hold c.mu.
func (c *Cache) save(force bool) {
	if !c.dirty {
		return
	}
	if !force && c.now().Sub(c.lastFlush) < c.debounce {
		return
	}
	c.flush()
}

// flush writes the whole map atomically (temp file + rename). Callers must
// hold c.mu. Errors are logged and swallowed: the cache degrades to
// memory-only rather than failing its caller.
func (c *Cache) flush() {
	raw := make(map[string][2]json.RawMessage, len(c.entries))
	for k, e := range c.entries {
		ts, err := json.Marshal(e.ts)
		if err != nil {
			continue
		}
		raw[k] = [2]json.RawMessage{ts, e.value}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		slog.Warn("cache flush: marshal failed", "path", c.path, "error", err)
		return
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Warn("cache flush: write failed", "path", c.path, "error", err)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		slog.Warn("cache flush: rename failed", "path", c.path, "error", err)
		_ = os.Remove(tmp)
		return
	}
	c.dirty = false
	c.lastFlush = c.now()
}

// load reads the file into memory. Malformed entries are skipped; a wholly
// unreadable file resets to an empty cache. Never fails.
func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cache load: read failed, starting empty", "path", c.path, "error", err)
		}
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("cache load: corrupt file, starting empty", "path", c.path, "error", err)
		return
	}

	skipped := 0
	for k, v := range raw {
		var pair []json.RawMessage
		if err := json.Unmarshal(v, &pair); err != nil || len(pair) != 2 {
			skipped++
			continue
		}
		var ts float64
		if err := json.Unmarshal(pair[0], &ts); err != nil {
			skipped++
			continue
		}
		c.entries[k] = entry{ts: ts, value: pair[1]}
	}
	if skipped > 0 {
		slog.Warn("cache load: skipped malformed entries", "path", c.path, "skipped", skipped)
	}
}
