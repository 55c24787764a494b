// Package router sets up all HTTP routes and middleware chains for the
// metapress API. Reads are public; every write and every post route
// requires API credentials.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"metapress/internal/handlers"
	"metapress/internal/middleware"
	"metapress/internal/models"
)

// New creates and returns the configured Chi router. limiter may be nil to
// disable rate limiting.
func New(api *handlers.API, authn middleware.Authenticator, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)

	// Health check: no auth, no rate limit.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		requireAuth := middleware.RequireAPIAuth(authn)

		for _, kind := range []models.Kind{models.KindCategory, models.KindTag} {
			r.Route("/"+kind.Plural(), func(r chi.Router) {
				r.Get("/", api.ListNodes(kind))
				r.Get("/{id}", api.GetNode(kind))

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Post("/", api.CreateNode(kind))
					r.Put("/{id}", api.UpdateNode(kind))
					r.Delete("/{id}", api.DeleteNode(kind))
					if kind == models.KindTag {
						r.Delete("/", api.DeleteNodes(kind))
						r.Post("/refresh", api.RefreshTags)
					}
				})
			})
		}

		r.Route("/posts", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", api.ListPosts)
			r.Post("/", api.CreatePost)
			r.Get("/{id}", api.GetPost)
			r.Delete("/{id}", api.DeletePost)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
