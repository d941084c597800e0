package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/poundtrades/catalog-service/internal/adapter/rest/middleware"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

// NewRouter wires the public and authenticated route groups. Listing reads
// are public; GetListing still runs the auth middleware in optional mode so
// an authenticated request can see its own unlocked contact details.
func NewRouter(h *Handler, jwtSecret string, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.Tracing)
	mux.Use(middleware.Logging(log))

	mux.Get("/healthz", h.Healthz)
	mux.Get("/api/listings", h.ListListings)
	mux.Get("/api/categories", h.GetCategories)

	// Optional auth: valid tokens attach identity, anonymous requests pass.
	mux.Group(func(r chi.Router) {
		r.Use(optionalAuth(jwtSecret, log))
		r.Get("/api/listings/{id}", h.GetListing)
	})

	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, log))

		r.Post("/api/listings", h.CreateListing)
		r.Put("/api/listings/{id}", h.UpdateListing)
		r.Delete("/api/listings/{id}", h.DeleteListing)
		r.Post("/api/listings/{id}/photos", h.UploadPhoto)
		r.Patch("/api/listings/{id}/status", h.SetStatus)

		r.Get("/api/my/listings", h.GetMyListings)

		r.Post("/api/favorites/{listingID}", h.ToggleFavorite)
		r.Get("/api/favorites", h.GetFavorites)

		r.Get("/api/listings/{id}/unlock", h.CheckUnlock)
		r.Post("/api/listings/{id}/unlock", h.RecordUnlock)

		r.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Get("/api/admin/stats", h.GetStats)
		})
	})

	return mux
}

// optionalAuth runs JWTAuth only when an Authorization header is present.
func optionalAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	auth := middleware.JWTAuth(jwtSecret, log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth(next).ServeHTTP(w, r)
		})
	}
}

// NewServer returns the HTTP server and a cleanup that drains it.
func NewServer(addr string, mux *chi.Mux, log *logger.Logger) (*http.Server, func()) {
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("http server shutdown failed", "error", err.Error())
		}
	}
	return server, cleanup
}
