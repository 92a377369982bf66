// Package profilestore defines the port for user personalization persistence.
package profilestore

import (
	"context"

	"github.com/Strob0t/MediaScout/internal/domain/profile"
)

// Store persists per-user profiles. GetProfile wraps domain.ErrNotFound for
// unknown users; UpdateHistory creates the profile when absent.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)
	SaveProfile(ctx context.Context, p *profile.Profile) error
	// GetContext resolves the rendered personalization block for userID.
	// Unknown users and empty profiles yield "", which the pipeline
	// normalizes to its neutral placeholder.
	GetContext(ctx context.Context, userID string) (string, error)
	// UpdateHistory appends one run's request and returned titles to the
	// user's capped history.
	UpdateHistory(ctx context.Context, userID string, entry profile.HistoryEntry) error
	DeleteProfile(ctx context.Context, userID string) error
}
