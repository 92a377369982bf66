package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/MediaScout/internal/domain"
	"github.com/Strob0t/MediaScout/internal/domain/profile"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/domain/request"
	"github.com/Strob0t/MediaScout/internal/port/cache"
	"github.com/Strob0t/MediaScout/internal/port/profilestore"
	"github.com/Strob0t/MediaScout/internal/service"
)

// defaultCount is used when the request body omits num_recommendations.
const defaultCount = 3

// defaultCleanupTTL is the sweep age for POST /cache/cleanup when the caller
// does not pass one. It matches the longest reader TTL in the system (the
// 24h rating-enrichment lookups), so swept entries can serve nobody.
const defaultCleanupTTL = 24 * time.Hour

// Recommender is the slice of the orchestrator the HTTP layer consumes.
type Recommender interface {
	Run(ctx context.Context, req request.Request) ([]recommendation.Recommendation, error)
	ActiveRuns() []service.RunInfo
}

// Handlers holds the service dependencies used by all HTTP handlers.
// Cache may be nil when the configured backend offers no maintenance
// surface; the cache admin endpoints then answer 501.
type Handlers struct {
	Orchestrator Recommender
	Profiles     profilestore.Store
	Cache        cache.Maintainer
}

// Recommend runs one recommendation request. A user_id with no explicit
// personalization_context is resolved through the profile store before the
// run; after a successful run the request and returned titles are appended
// to that user's history. History bookkeeping is best-effort and never
// fails the response.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[request.Request](w, r)
	if !ok {
		return
	}
	if req.Count == 0 {
		req.Count = defaultCount
	}

	if req.UserID != "" && req.PersonalizationContext == "" {
		pctx, err := h.Profiles.GetContext(r.Context(), req.UserID)
		if err != nil {
			slog.Warn("personalization lookup failed", "user_id", req.UserID, "error", err)
		}
		req.PersonalizationContext = pctx
	}

	recs, err := h.Orchestrator.Run(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "recommendation run failed")
		return
	}

	if req.UserID != "" {
		h.recordHistory(r.Context(), req, recs)
	}

	writeJSON(w, http.StatusOK, recs)
}

// recordHistory appends one run's outcome to the user's profile.
func (h *Handlers) recordHistory(ctx context.Context, req request.Request, recs []recommendation.Recommendation) {
	titles := make([]string, 0, len(recs))
	for _, rec := range recs {
		titles = append(titles, rec.Title)
	}
	media := req.MediaType
	if len(recs) > 0 && recs[0].Type.Valid() {
		// The fast path may have rerouted the declared media type; the
		// returned records carry the kind that actually ran.
		media = recs[0].Type
	}
	entry := profile.HistoryEntry{
		Request:   req.UserRequest,
		MediaType: media,
		Titles:    titles,
		At:        time.Now().UTC(),
	}
	if err := h.Profiles.UpdateHistory(ctx, req.UserID, entry); err != nil {
		slog.Warn("profile history update failed", "user_id", req.UserID, "error", err)
	}
}

// ActiveRuns lists the in-flight recommendation runs.
func (h *Handlers) ActiveRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.ActiveRuns())
}

// GetProfile returns the stored profile for a user.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "userID")
	p, err := h.Profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutProfile replaces a user's stated preferences. The body carries
// preferences only; recommendation history is system-maintained and kept
// across preference updates.
func (h *Handlers) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "userID")
	prefs, ok := readJSON[profile.Preferences](w, r)
	if !ok {
		return
	}

	p, err := h.Profiles.GetProfile(r.Context(), userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p = &profile.Profile{UserID: userID}
	case err != nil:
		writeInternalError(w, err)
		return
	}
	p.Preferences = prefs

	if err := h.Profiles.SaveProfile(r.Context(), p); err != nil {
		writeDomainError(w, err, "profile update failed")
		return
	}

	saved, err := h.Profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteProfile removes a user's profile.
func (h *Handlers) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "userID")
	if err := h.Profiles.DeleteProfile(r.Context(), userID); err != nil {
		writeDomainError(w, err, "profile not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CacheStats reports the API cache's maintenance statistics.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		writeError(w, http.StatusNotImplemented, "cache backend does not support maintenance")
		return
	}
	stats, err := h.Cache.Stats(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CacheCleanup sweeps cache entries older than the ttl query parameter
// (Go duration syntax, default 24h) and reports how many were removed.
func (h *Handlers) CacheCleanup(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		writeError(w, http.StatusNotImplemented, "cache backend does not support maintenance")
		return
	}

	ttl := defaultCleanupTTL
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "ttl must be a positive duration")
			return
		}
		ttl = parsed
	}

	removed, err := h.Cache.CleanupExpired(r.Context(), ttl)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// CacheClear drops every cache entry.
func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		writeError(w, http.StatusNotImplemented, "cache backend does not support maintenance")
		return
	}
	if err := h.Cache.Clear(r.Context()); err != nil {
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
