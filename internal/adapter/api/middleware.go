package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// recovery answers a panic with the API's JSON 500 and reports it through
// the request's chi log entry when there is one.
func recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if entry := chimiddleware.GetLogEntry(r); entry != nil {
					entry.Panic(rec, debug.Stack())
				} else {
					logger.Error("panic recovered", "error", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
				}
				writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger is chi's RequestLogger writing one slog record per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return chimiddleware.RequestLogger(slogFormatter{logger: logger})
}

type slogFormatter struct {
	logger *slog.Logger
}

func (f slogFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	return &slogEntry{logger: f.logger.With(
		"request_id", chimiddleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)}
}

type slogEntry struct {
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	e.logger.Debug("request", "status", status, "bytes", bytes, "duration", elapsed)
}

func (e *slogEntry) Panic(v any, stack []byte) {
	e.logger.Error("panic recovered", "error", v, "stack", string(stack))
}

// metricsMiddleware labels requests by route pattern so that query strings
// and unknown paths do not explode label cardinality.
func metricsMiddleware(m *observability.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
