// Package api serves the read-only observation query API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the read side of the observation store.
type Store interface {
	ListDates(ctx context.Context) ([]time.Time, error)
	ListStations(ctx context.Context, territory string) ([]domain.Station, error)
	CountStationsByTerritory(ctx context.Context, t time.Time, params []string) ([]domain.TerritoryCount, error)
	CheckReadiness(ctx context.Context) error
}

// Config holds router settings.
type Config struct {
	// RateLimit is the number of requests per minute allowed per client IP
	// on the /api/v1 routes. Zero disables limiting.
	RateLimit int
	Metrics   *observability.APIMetrics
	Logger    *slog.Logger
}

// NewRouter creates the query API router.
func NewRouter(store Store, cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(metricsMiddleware(cfg.Metrics))
	}
	r.Use(recovery(logger))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.Limit(
				cfg.RateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByRealIP),
				httprate.WithLimitHandler(rateLimitExceeded),
			))
		}
		r.Get("/dates", h.listDates)
		r.Get("/stations", h.listStations)
		r.Get("/stats", h.stationStats)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func rateLimitExceeded(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
