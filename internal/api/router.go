package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Reads are open; favorites mutations require the bearer token when one is set.
func NewRouter(handlers *Handlers, token string, store pinger, apiKeyConfigured bool, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/api/v1/health", HealthHandlerFunc(store, apiKeyConfigured, log))
	r.Get("/api/v1/weather", handlers.GetWeather)
	r.Get("/api/v1/favorites", handlers.ListFavorites)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))
		r.Post("/api/v1/favorites", handlers.AddFavorite)
		r.Post("/api/v1/favorites/toggle", handlers.ToggleFavorite)
		r.Delete("/api/v1/favorites/{id}", handlers.RemoveFavorite)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
