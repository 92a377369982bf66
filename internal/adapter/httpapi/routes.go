package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Recommendations
		r.Post("/recommendations", h.Recommend)
		r.Get("/runs", h.ActiveRuns)

		// Profiles
		r.Get("/profiles/{userID}", h.GetProfile)
		r.Put("/profiles/{userID}", h.PutProfile)
		r.Delete("/profiles/{userID}", h.DeleteProfile)

		// Cache administration
		r.Get("/cache/stats", h.CacheStats)
		r.Post("/cache/cleanup", h.CacheCleanup)
		r.Delete("/cache", h.CacheClear)
	})
}
