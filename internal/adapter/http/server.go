package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline is the view of the ingestion pipeline the ops server reports on.
type Pipeline interface {
	CheckReadiness(ctx context.Context) error
	LastReport() (pipeline.CycleReport, bool)
}

// Server exposes the ingestion daemon's health, readiness, cycle status and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /status and /metrics routes.
func NewServer(addr string, p Pipeline, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(p))
	mux.HandleFunc("GET /status", handleStatus(p))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("ops server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// cycleStatus is the JSON form of the last cycle report.
type cycleStatus struct {
	Timestep   string `json:"timestep,omitempty"`
	Outcome    string `json:"outcome"`
	Phase      string `json:"phase"`
	Records    int    `json:"records"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Failed     int    `json:"failed"`
	Unresolved int    `json:"unresolved"`
	Error      string `json:"error,omitempty"`
}

func handleStatus(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report, ok := p.LastReport()
		if !ok {
			writeJSON(w, http.StatusOK, map[string]string{"status": "no cycle has run yet"})
			return
		}

		status := cycleStatus{
			Outcome:    report.Outcome.String(),
			Phase:      report.Phase.String(),
			Records:    report.Records,
			Inserted:   report.Inserted,
			Updated:    report.Updated,
			Failed:     report.Failed,
			Unresolved: report.Unresolved,
		}
		if !report.Timestep.IsZero() {
			status.Timestep = domain.FormatTimestamp(report.Timestep)
		}
		if report.Err != nil {
			status.Error = report.Err.Error()
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort ops response
}
