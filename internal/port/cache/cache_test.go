package cache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Strob0t/MediaScout/internal/adapter/filecache"
	"github.com/Strob0t/MediaScout/internal/adapter/ristretto"
	"github.com/Strob0t/MediaScout/internal/port/cache"
)

// runComplianceTests runs the standard compliance suite against any Cache
// implementation. Every backend must agree on these semantics so the
// memoizer can treat them interchangeably. Values are JSON because that is
// all callers ever store and the file backend validates it.
func runComplianceTests(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "compliance-key", []byte(`"compliance-val"`)); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "compliance-key", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `"compliance-val"` {
			t.Fatalf("expected compliance-val, got %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nonexistent-key", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("ExpiredReadsAsAbsent", func(t *testing.T) {
		if err := c.Set(ctx, "exp-key", []byte(`"exp-val"`)); err != nil {
			t.Fatal(err)
		}
		// A zero ttl means everything already written is stale.
		_, found, err := c.Get(ctx, "exp-key", 0)
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss under a zero ttl")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "del-key", []byte(`"del-val"`))
		if err := c.Delete(ctx, "del-key"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "del-key", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "ow-key", []byte(`"v1"`))
		_ = c.Set(ctx, "ow-key", []byte(`"v2"`))
		val, found, err := c.Get(ctx, "ow-key", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != `"v2"` {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})
}

func TestRistrettoCompliance(t *testing.T) {
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatalf("ristretto.New: %v", err)
	}
	defer c.Close()
	runComplianceTests(t, c)
}

func TestFileCacheCompliance(t *testing.T) {
	c, err := filecache.New(filepath.Join(t.TempDir(), "compliance.json"), 0)
	if err != nil {
		t.Fatalf("filecache.New: %v", err)
	}
	runComplianceTests(t, c)
}
