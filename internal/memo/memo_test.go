package memo

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mapCache is a minimal in-memory cache.Cache for testing.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (m *mapCache) Get(_ context.Context, key string, _ time.Duration) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("search_movies", []any{"inception", 3}, map[string]any{"year": 2010, "lang": "en"})
	b := Key("search_movies", []any{"inception", 3}, map[string]any{"lang": "en", "year": 2010})
	if a != b {
		t.Fatalf("kwargs order must not matter:\n%s\n%s", a, b)
	}
	if a != "search_movies:inception|3:lang=en,year=2010" {
		t.Fatalf("unexpected key shape: %s", a)
	}
}

func TestKeyDistinguishesArgs(t *testing.T) {
	a := Key("search", []any{"dune"}, nil)
	b := Key("search", []any{"dune 2"}, nil)
	if a == b {
		t.Fatal("different args must produce different keys")
	}
}

func TestDoCachesResult(t *testing.T) {
	m := New(newMapCache(), time.Minute)
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "payload", nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := Do(ctx, m, "k", fn)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if got != "payload" {
			t.Fatalf("Do = %q", got)
		}
	}
	if calls != 1 {
		t.Fatalf("underlying call ran %d times, want 1", calls)
	}
}

func TestDoNeverCachesErrors(t *testing.T) {
	m := New(newMapCache(), time.Minute)
	calls := 0
	boom := errors.New("upstream down")
	fn := func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, boom
		}
		return 42, nil
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := Do(ctx, m, "k", fn); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected upstream error, got %v", i, err)
		}
	}
	got, err := Do(ctx, m, "k", fn)
	if err != nil || got != 42 {
		t.Fatalf("recovered call = %d, %v", got, err)
	}
	if calls != 3 {
		t.Fatalf("underlying call ran %d times, want 3", calls)
	}
}

func TestDoStructuredValues(t *testing.T) {
	type result struct {
		Title  string  `json:"title"`
		Rating float64 `json:"rating"`
	}
	m := New(newMapCache(), time.Minute)
	fn := func(context.Context) (result, error) {
		return result{Title: "Heat", Rating: 8.3}, nil
	}

	ctx := context.Background()
	if _, err := Do(ctx, m, "k", fn); err != nil {
		t.Fatal(err)
	}
	got, err := Do(ctx, m, "k", func(context.Context) (result, error) {
		t.Fatal("must be served from cache")
		return result{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Heat" || got.Rating != 8.3 {
		t.Fatalf("cached round-trip mangled the value: %+v", got)
	}
}

func TestDoCorruptEntryRefetches(t *testing.T) {
	mc := newMapCache()
	mc.data["k"] = []byte(`{"broken`)
	m := New(mc, time.Minute)

	got, err := Do(context.Background(), m, "k", func(context.Context) (map[string]int, error) {
		return map[string]int{"fresh": 1}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["fresh"] != 1 {
		t.Fatalf("corrupt cache entry must be refetched, got %v", got)
	}
}
