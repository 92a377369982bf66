package profile

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAddHistoryCap(t *testing.T) {
	var p Profile
	for i := 0; i < MaxHistoryEntries+10; i++ {
		p.AddHistory(HistoryEntry{
			Request: fmt.Sprintf("request %d", i),
			Titles:  []string{fmt.Sprintf("Title %d", i)},
			At:      time.Now(),
		})
	}
	if len(p.History) != MaxHistoryEntries {
		t.Fatalf("history length = %d, want %d", len(p.History), MaxHistoryEntries)
	}
	if p.History[0].Request != fmt.Sprintf("request %d", MaxHistoryEntries+9) {
		t.Fatalf("newest entry not first: %q", p.History[0].Request)
	}
}

func TestContext(t *testing.T) {
	var empty Profile
	if got := empty.Context(); got != "" {
		t.Fatalf("empty profile context = %q, want empty", got)
	}

	p := Profile{
		Preferences: Preferences{
			FavoriteGenres: []string{"noir", "thriller"},
			DislikedTitles: []string{"Cats"},
		},
	}
	p.AddHistory(HistoryEntry{Request: "r", Titles: []string{"Se7en", "Heat"}})

	ctx := p.Context()
	for _, want := range []string{"noir, thriller", "Cats", "Se7en", "Heat"} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}
}

func TestRecentTitlesDeduplicated(t *testing.T) {
	var p Profile
	p.AddHistory(HistoryEntry{Request: "a", Titles: []string{"Dune", "dune"}})
	p.AddHistory(HistoryEntry{Request: "b", Titles: []string{"DUNE", "Foundation"}})

	got := p.recentTitles(10)
	if len(got) != 2 {
		t.Fatalf("recentTitles = %v, want 2 distinct titles", got)
	}
}
