// Package httpapi assembles the chi router and its middleware stack.
package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"posterlab/internal/http/handlers"
	"posterlab/internal/middleware"
)

// NewRouter wires middleware and routes around the handler set. lookup may be
// nil when no GeoIP database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(app.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(app.Config.CORSAllowedOrigins))
	r.Use(middleware.Locale(app.Config.DefaultLanguage, lookup))

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))
		if app.Config.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
		}
		r.Post("/v1/posters/generate", app.Generate)
	})

	return r
}
