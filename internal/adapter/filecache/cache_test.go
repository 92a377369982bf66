package filecache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api_cache.json")
	c, err := New(path, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, path
}

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	want := []byte(`{"title":"Inception","rating":8.8}`)
	if err := c.Set(ctx, "movie:inception", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "movie:inception", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != string(want) {
		t.Fatalf("Get = %s, want %s", got, want)
	}
}

func TestGetMissing(t *testing.T) {
	c, _ := newTestCache(t)
	if _, ok, err := c.Get(context.Background(), "absent", time.Minute); ok || err != nil {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}

func TestExpiryEvictsOnRead(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	c.now = clock.now

	if err := c.Set(ctx, "k", []byte(`"v"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.advance(10 * time.Second)

	// Still fresh for a long ttl, expired for a short one.
	if _, ok, _ := c.Get(ctx, "k", time.Minute); !ok {
		t.Fatal("entry should be fresh under a 1m ttl")
	}
	if _, ok, _ := c.Get(ctx, "k", 10*time.Second); ok {
		t.Fatal("entry at exactly ttl age must read as absent")
	}

	// The expired read evicted it for everyone, long ttl included.
	if _, ok, _ := c.Get(ctx, "k", time.Hour); ok {
		t.Fatal("evicted entry must stay gone")
	}
	s, _ := c.Stats(ctx)
	if s.Entries != 0 {
		t.Fatalf("Stats.Entries = %d, want 0", s.Entries)
	}
}

func TestReaderSuppliedTTLPolicies(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	c.now = clock.now

	_ = c.Set(ctx, "shared", []byte(`1`))
	clock.advance(30 * time.Minute)

	// A 24h reader still sees the entry even though a 5m reader would not
	// (the 5m read would evict, so check the long policy first).
	if _, ok, _ := c.Get(ctx, "shared", 24*time.Hour); !ok {
		t.Fatal("the same entry must serve longer ttl policies")
	}
}

func TestPersistenceAcrossInstances(t *testing.T) {
	c, path := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte(`{"n":1}`))
	_ = c.Set(ctx, "b", []byte(`[1,2,3]`))

	reopened, err := New(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for key, want := range map[string]string{"a": `{"n":1}`, "b": `[1,2,3]`} {
		got, ok, _ := reopened.Get(ctx, key, time.Hour)
		if !ok || string(got) != want {
			t.Fatalf("reopened Get(%q) = %s ok=%v, want %s", key, got, ok, want)
		}
	}
}

func TestFileCreatedEagerly(t *testing.T) {
	_, path := newTestCache(t)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cache file must exist after construction: %v", err)
	}
	if string(data) != "{}" {
		t.Fatalf("fresh cache file = %s, want {}", data)
	}
}

func TestCorruptFileResetsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(path, 0)
	if err != nil {
		t.Fatalf("New over corrupt file: %v", err)
	}
	s, _ := c.Stats(context.Background())
	if s.Entries != 0 {
		t.Fatalf("corrupt file must reset to empty, got %d entries", s.Entries)
	}
}

func TestMalformedEntriesSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.json")
	disk := `{
		"good": [1700000000.5, {"v": 1}],
		"not_a_pair": "oops",
		"wrong_len": [1700000000.5],
		"bad_ts": ["yesterday", {"v": 2}]
	}`
	if err := os.WriteFile(path, []byte(disk), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(path, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, _ := c.Stats(context.Background())
	if s.Entries != 1 {
		t.Fatalf("expected only the well-formed entry, got %d", s.Entries)
	}
}

func TestSetAlwaysFlushes(t *testing.T) {
	c, path := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k1", []byte(`1`))
	_ = c.Set(ctx, "k2", []byte(`2`))

	var onDisk map[string]json.RawMessage
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk) != 2 {
		t.Fatalf("back-to-back sets must both hit disk, file has %d entries", len(onDisk))
	}
}

func TestEvictionFlushIsDebounced(t *testing.T) {
	c, path := newTestCache(t)
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	c.now = clock.now

	_ = c.Set(ctx, "old", []byte(`1`))
	_ = c.Set(ctx, "keep", []byte(`2`))
	clock.advance(10 * time.Second)
	_ = c.Set(ctx, "fresh", []byte(`3`)) // establishes lastFlush = now

	// Expired read inside the debounce window: evicted in memory, still on disk.
	if _, ok, _ := c.Get(ctx, "old", time.Second); ok {
		t.Fatal("entry should be expired")
	}
	data, _ := os.ReadFile(path)
	var onDisk map[string]json.RawMessage
	_ = json.Unmarshal(data, &onDisk)
	if _, there := onDisk["old"]; !there {
		t.Fatal("debounced eviction must not flush immediately")
	}

	// Past the window the next eviction flush goes through.
	clock.advance(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "keep", time.Second); ok {
		t.Fatal("entry should be expired")
	}
	data, _ = os.ReadFile(path)
	onDisk = nil
	_ = json.Unmarshal(data, &onDisk)
	if _, there := onDisk["old"]; there {
		t.Fatal("flush after the debounce window must persist prior evictions")
	}
}

func TestCleanupExpired(t *testing.T) {
	c, path := newTestCache(t)
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	c.now = clock.now

	_ = c.Set(ctx, "stale1", []byte(`1`))
	_ = c.Set(ctx, "stale2", []byte(`2`))
	clock.advance(time.Hour)
	_ = c.Set(ctx, "fresh", []byte(`3`))

	removed, err := c.CleanupExpired(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	data, _ := os.ReadFile(path)
	var onDisk map[string]json.RawMessage
	_ = json.Unmarshal(data, &onDisk)
	if len(onDisk) != 1 {
		t.Fatalf("sweep must force-flush, file has %d entries", len(onDisk))
	}

	// Nothing left to sweep: no-op, no flush needed.
	removed, _ = c.CleanupExpired(ctx, 30*time.Minute)
	if removed != 0 {
		t.Fatalf("second sweep removed %d, want 0", removed)
	}
}

func TestClear(t *testing.T) {
	c, path := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte(`1`))
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k", time.Hour); ok {
		t.Fatal("cleared entry still readable")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{}" {
		t.Fatalf("cleared file = %s, want {}", data)
	}
}

func TestSetRejectsInvalidJSON(t *testing.T) {
	c, _ := newTestCache(t)
	if err := c.Set(context.Background(), "k", []byte("not-json")); err == nil {
		t.Fatal("expected error for non-JSON value")
	}
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte(`1`))
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k", time.Hour); ok {
		t.Fatal("deleted entry still readable")
	}
	// Deleting an absent key is a no-op.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}
