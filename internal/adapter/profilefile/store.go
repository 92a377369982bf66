// Package profilefile implements the profile store as a single JSON file
// mapping user ID -> profile. Profiles mutate rarely, so every write flushes
// atomically (temp file + rename); reads serve deep copies so callers can
// mutate and re-save without racing the store.
package profilefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain"
	"github.com/Strob0t/MediaScout/internal/domain/profile"
	"github.com/Strob0t/MediaScout/internal/port/profilestore"
)

// Store is a mutex-guarded user->profile map backed by one JSON file.
type Store struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
	path     string
}

var _ profilestore.Store = (*Store)(nil)

// New opens (or creates) the profile file at path. An unreadable or corrupt
// file logs a warning and starts empty rather than failing startup.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	s := &Store{profiles: make(map[string]*profile.Profile), path: path}
	s.load()
	return s, nil
}

// GetProfile returns a copy of the stored profile for userID.
func (s *Store) GetProfile(_ context.Context, userID string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	return clone(p), nil
}

// SaveProfile upserts the profile under its user ID and flushes.
func (s *Store) SaveProfile(_ context.Context, p *profile.Profile) error {
	if p == nil || p.UserID == "" {
		return fmt.Errorf("save profile: %w: user id required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := clone(p)
	cp.UpdatedAt = time.Now().UTC()
	s.profiles[p.UserID] = cp
	return s.flush()
}

// GetContext renders the personalization block for userID. Unknown users
// yield "" so the pipeline substitutes its neutral placeholder.
func (s *Store) GetContext(ctx context.Context, userID string) (string, error) {
	p, err := s.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.Context(), nil
}

// UpdateHistory appends one run's entry to the user's history, creating the
// profile on first contact.
func (s *Store) UpdateHistory(_ context.Context, userID string, entry profile.HistoryEntry) error {
	if userID == "" {
		return fmt.Errorf("update history: %w: user id required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = &profile.Profile{UserID: userID}
		s.profiles[userID] = p
	}
	p.AddHistory(entry)
	return s.flush()
}

// DeleteProfile removes the user's profile and flushes.
func (s *Store) DeleteProfile(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[userID]; !ok {
		return fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	delete(s.profiles, userID)
	return s.flush()
}

func clone(p *profile.Profile) *profile.Profile {
	out := *p
	out.Preferences.FavoriteGenres = slices.Clone(p.Preferences.FavoriteGenres)
	out.Preferences.LikedTitles = slices.Clone(p.Preferences.LikedTitles)
	out.Preferences.DislikedTitles = slices.Clone(p.Preferences.DislikedTitles)
	out.History = make([]profile.HistoryEntry, len(p.History))
	for i, e := range p.History {
		out.History[i] = e
		out.History[i].Titles = slices.Clone(e.Titles)
	}
	return &out
}

// flush writes the whole map atomically. Callers must hold s.mu. Unlike the
// API cache, profile writes surface their errors: a lost preference update
// is a bug the caller should see, not a cache miss.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename profiles: %w", err)
	}
	return nil
}

// load reads the file into memory. Missing is normal on first run; corrupt
// starts empty with a warning.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("profile load: read failed, starting empty", "path", s.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, &s.profiles); err != nil {
		slog.Warn("profile load: corrupt file, starting empty", "path", s.path, "error", err)
		s.profiles = make(map[string]*profile.Profile)
		return
	}
	for id, p := range s.profiles {
		if p == nil {
			delete(s.profiles, id)
			continue
		}
		if p.UserID == "" {
			p.UserID = id
		}
	}
}
