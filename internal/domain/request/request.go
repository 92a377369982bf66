// Package request defines the recommendation request and its validation rules.
package request

import (
	"fmt"
	"strings"

	"github.com/Strob0t/MediaScout/internal/domain"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
)

// Bounds on the number of recommendations one run may return.
const (
	MinCount = 1
	MaxCount = 10
)

// Request carries everything one recommendation run needs. UserID is resolved
// to PersonalizationContext by the caller before the run starts; the pipeline
// itself only ever sees the rendered context string.
type Request struct {
	UserRequest            string                    `json:"user_request"`
	MediaType              recommendation.MediaType  `json:"media_type"`
	Genre                  string                    `json:"genre,omitempty"`
	Mood                   string                    `json:"mood,omitempty"`
	Timeframe              string                    `json:"timeframe,omitempty"`
	Count                  int                       `json:"num_recommendations"`
	UserID                 string                    `json:"user_id,omitempty"`
	PersonalizationContext string                    `json:"personalization_context,omitempty"`
}

// Validate enforces the three preconditions that abort a run before any
// pipeline work: non-empty request text, a known media type, and a count
// within bounds. All returned errors wrap domain.ErrInvalidInput.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.UserRequest) == "" {
		return fmt.Errorf("%w: user request must not be empty", domain.ErrInvalidInput)
	}
	if !r.MediaType.Valid() {
		return fmt.Errorf("%w: media type must be one of movie, book, tv (got %q)", domain.ErrInvalidInput, string(r.MediaType))
	}
	if r.Count < MinCount || r.Count > MaxCount {
		return fmt.Errorf("%w: num_recommendations must be between %d and %d (got %d)", domain.ErrInvalidInput, MinCount, MaxCount, r.Count)
	}
	return nil
}
