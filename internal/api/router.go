package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/internal/web"
)

// RouterConfig controls the middleware stack around the handlers.
type RouterConfig struct {
	AllowedOrigins []string
	Logger         zerolog.Logger
	// RateLimitRequests per RateLimitWindow per client address; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter assembles middleware, the landing page, metrics and API routes.
func NewRouter(cfg RouterConfig, handler *Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging.AccessLog(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", web.Index)
	r.Handle("/public/*", web.Static("/public"))
	r.NotFound(web.Fallback().ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		handler.RegisterRoutes(r)
	})
	return r
}

func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByRealIP(requests, window)
}
