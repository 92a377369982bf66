// Package profile defines per-user personalization data: stated preferences
// and a capped history of past recommendations.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// MaxHistoryEntries caps the retained history per user, newest first.
const MaxHistoryEntries = 50

// Preferences are the user's stated tastes.
type Preferences struct {
	FavoriteGenres []string `json:"favorite_genres,omitempty"`
	LikedTitles    []string `json:"liked_titles,omitempty"`
	DislikedTitles []string `json:"disliked_titles,omitempty"`
}

// HistoryEntry records one past run: what was asked and what came back.
type HistoryEntry struct {
	Request   string                   `json:"request"`
	MediaType recommendation.MediaType `json:"media_type,omitempty"`
	Titles    []string                 `json:"titles"`
	At        time.Time                `json:"at"`
}

// Profile is the stored personalization record for one user.
type Profile struct {
	UserID      string         `json:"user_id"`
	Preferences Preferences    `json:"preferences"`
	History     []HistoryEntry `json:"history,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AddHistory prepends an entry and trims the history to MaxHistoryEntries.
func (p *Profile) AddHistory(e HistoryEntry) {
	p.History = append([]HistoryEntry{e}, p.History...)
	if len(p.History) > MaxHistoryEntries {
		p.History = p.History[:MaxHistoryEntries]
	}
	p.UpdatedAt = time.Now().UTC()
}

// Context renders the profile into the text block the analysis task
// interpolates. Returns "" for an empty profile so callers can substitute
// the neutral placeholder.
func (p *Profile) Context() string {
	var b strings.Builder
	if len(p.Preferences.FavoriteGenres) > 0 {
		fmt.Fprintf(&b, "Favorite genres: %s.\n", strings.Join(p.Preferences.FavoriteGenres, ", "))
	}
	if len(p.Preferences.LikedTitles) > 0 {
		fmt.Fprintf(&b, "Titles the user liked: %s.\n", strings.Join(p.Preferences.LikedTitles, ", "))
	}
	if len(p.Preferences.DislikedTitles) > 0 {
		fmt.Fprintf(&b, "Avoid titles similar to: %s.\n", strings.Join(p.Preferences.DislikedTitles, ", "))
	}
	if recent := p.recentTitles(10); len(recent) > 0 {
		fmt.Fprintf(&b, "Recently recommended (do not repeat): %s.\n", strings.Join(recent, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// recentTitles collects up to n distinct titles from newest history entries.
func (p *Profile) recentTitles(n int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range p.History {
		for _, t := range e.Titles {
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
			if len(out) == n {
				return out
			}
		}
	}
	return out
}
