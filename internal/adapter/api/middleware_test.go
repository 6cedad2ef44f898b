package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestRequestLogger_WritesOneRecordPerRequest(t *testing.T) {
	var buf bytes.Buffer
	h := chimiddleware.RequestID(requestLogger(bufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dates?x=1", nil))

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "request", lines[0]["msg"])
	assert.Equal(t, "GET", lines[0]["method"])
	assert.Equal(t, "/api/v1/dates", lines[0]["path"])
	assert.InDelta(t, http.StatusTeapot, lines[0]["status"], 0)
	assert.InDelta(t, len("short and stout"), lines[0]["bytes"], 0)
	assert.NotEmpty(t, lines[0]["request_id"])
}

func TestRecovery_AnswersWithJSONError(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf)
	h := requestLogger(logger)(recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Status)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "panic recovered", lines[0]["msg"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "/api/v1/stats", lines[0]["path"])
	assert.InDelta(t, http.StatusInternalServerError, lines[1]["status"], 0)
}
