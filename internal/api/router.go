package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterOptions configures the HTTP surface
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        http.Handler
	AccessLog      bool

	// InvalidateLimit caps forced recomputes per client IP per minute; 0 means 30
	InvalidateLimit int
}

// NewRouter wires the handler into a chi router
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Routes
	r.Get("/health", h.HealthCheck)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	if opts.InvalidateLimit <= 0 {
		opts.InvalidateLimit = 30
	}

	r.Route("/api/v1/events/{eventID}", func(r chi.Router) {
		r.Get("/recommendations", h.GetRecommendations)
		r.Get("/recommendations/full", h.GetFullSpectrum)
		r.With(httprate.LimitByIP(opts.InvalidateLimit, time.Minute)).Post("/invalidate", h.Invalidate)
		r.Get("/history", h.GetHistory)
	})

	return r
}
