// Package cache defines the port interface for caching.
//
// Freshness is the reader's policy, not the entry's: every stored value
// carries its write timestamp, and Get decides staleness against the ttl
// the caller supplies. The same physical entry can therefore answer a
// 5-minute search lookup and a 24-hour rating lookup at once.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	// Get returns the value stored under key if it was written less than
	// ttl ago. An expired entry reads as absent.
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)
	// Set upserts the value under key with the current time as its
	// timestamp.
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Stats describes a cache instance for admin surfaces.
type Stats struct {
	Entries   int    `json:"entries"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Path      string `json:"path,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	Backend   string `json:"backend"`
}

// Maintainer is the optional maintenance surface a backend may offer.
type Maintainer interface {
	// Clear drops every entry.
	Clear(ctx context.Context) error
	// CleanupExpired sweeps entries older than ttl and reports how many
	// were removed. Backends that evict internally may report zero.
	CleanupExpired(ctx context.Context, ttl time.Duration) (int, error)
	Stats(ctx context.Context) (Stats, error)
}
