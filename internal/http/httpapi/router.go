package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// Options tunes router-level behavior.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

// NewRouter assembles the HTTP surface: health is public, everything under
// /v1 requires an owner identity, generation endpoints are rate limited.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Origin(opts.CountryLookup),
		middleware.Logger(app.Logger),
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Identity)

		limit := opts.RateLimitPerMin
		if limit <= 0 {
			limit = 30
		}
		rateLimited := middleware.RateLimit(limit, time.Minute)

		r.Route("/charts", func(r chi.Router) {
			r.With(rateLimited).Post("/", app.CreateChart)
			r.Get("/", app.ListCharts)
		})
		r.Route("/images", func(r chi.Router) {
			r.With(rateLimited).Post("/", app.CreateImage)
			r.Get("/", app.ListImages)
		})
		r.Route("/videos", func(r chi.Router) {
			r.With(rateLimited).Post("/", app.CreateVideo)
			r.Get("/", app.ListVideos)
		})
		r.Route("/library", func(r chi.Router) {
			r.Get("/", app.ListLibrary)
			r.Post("/refresh-urls", app.RefreshURLs)
			r.Get("/download", app.DownloadGeneration)
		})
	})

	return r
}
