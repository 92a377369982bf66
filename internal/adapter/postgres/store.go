package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/MediaScout/internal/domain"
	"github.com/Strob0t/MediaScout/internal/domain/profile"
	"github.com/Strob0t/MediaScout/internal/port/profilestore"
)

// Store implements profilestore.Store using PostgreSQL. Preferences and
// history live in jsonb columns so the profile shape can evolve without
// schema churn.
type Store struct {
	pool *pgxpool.Pool
}

var _ profilestore.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetProfile returns the stored profile for userID.
func (s *Store) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, preferences, history, updated_at FROM profiles WHERE user_id = $1`,
		userID)

	p, err := scanProfile(row)
	if err != nil {
		return nil, notFoundWrap(err, "get profile %s", userID)
	}
	return p, nil
}

// SaveProfile upserts the profile under its user ID.
func (s *Store) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p == nil || p.UserID == "" {
		return fmt.Errorf("save profile: %w: user id required", domain.ErrInvalidInput)
	}
	prefs, history, err := encodeProfile(p)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, preferences, history, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   preferences = EXCLUDED.preferences,
		   history = EXCLUDED.history,
		   updated_at = NOW()`,
		p.UserID, prefs, history)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
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
// profile on first contact. The row lock serializes concurrent runs for the
// same user so neither append is lost.
func (s *Store) UpdateHistory(ctx context.Context, userID string, entry profile.HistoryEntry) error {
	if userID == "" {
		return fmt.Errorf("update history: %w: user id required", domain.ErrInvalidInput)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT user_id, preferences, history, updated_at FROM profiles WHERE user_id = $1 FOR UPDATE`,
		userID)
	p, err := scanProfile(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		p = &profile.Profile{UserID: userID}
	case err != nil:
		return fmt.Errorf("lock profile %s: %w", userID, err)
	}
	p.AddHistory(entry)

	prefs, history, err := encodeProfile(p)
	if err != nil {
		return fmt.Errorf("update history %s: %w", userID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (user_id, preferences, history, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   history = EXCLUDED.history,
		   updated_at = NOW()`,
		userID, prefs, history); err != nil {
		return fmt.Errorf("update history %s: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history update: %w", err)
	}
	return nil
}

// DeleteProfile removes the user's profile.
func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	return execExpectOne(tag, err, "delete profile %s", userID)
}

func scanProfile(row scannable) (*profile.Profile, error) {
	var (
		p       profile.Profile
		prefs   []byte
		history []byte
	)
	if err := row.Scan(&p.UserID, &prefs, &history, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if err := json.Unmarshal(history, &p.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &p, nil
}

func encodeProfile(p *profile.Profile) (prefs, history []byte, err error) {
	prefs, err = json.Marshal(p.Preferences)
	if err != nil {
		return nil, nil, fmt.Errorf("encode preferences: %w", err)
	}
	history, err = json.Marshal(orEmpty(p.History))
	if err != nil {
		return nil, nil, fmt.Errorf("encode history: %w", err)
	}
	return prefs, history, nil
}
