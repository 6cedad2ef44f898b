package oscar

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "stationSearchResults": [
    {
      "wigosId": "0-20000-0-06660",
      "name": "Zurich / Fluntern",
      "territory": "Switzerland",
      "latitude": 47.3779,
      "longitude": 8.5656,
      "elevation": 555.9,
      "wigosStationIdentifiers": [
        {"wigosStationIdentifier": "0-20000-0-06660", "primary": true},
        {"wigosStationIdentifier": "0-756-0-SMA", "primary": false}
      ]
    },
    {
      "wigosId": "",
      "name": "No coordinates",
      "wigosStationIdentifiers": [
        {"wigosStationIdentifier": "0-756-0-XYZ", "primary": false}
      ]
    }
  ]
}`

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries:    2,
		retryInterval: time.Millisecond,
	}
}

func ptr[T any](v T) *T { return &v }

func TestClient_Stations_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Switzerland", r.URL.Query().Get("territoryName"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, searchBody)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Stations(context.Background(), "Switzerland")
	require.NoError(t, err)

	want := []domain.CatalogStation{
		{
			WIGOSID:   "0-20000-0-06660",
			Name:      "Zurich / Fluntern",
			Territory: ptr("Switzerland"),
			Latitude:  ptr(47.3779),
			Longitude: ptr(8.5656),
			Elevation: ptr(555.9),
			Identifiers: []domain.CatalogIdentifier{
				{ID: "0-20000-0-06660", Primary: true},
				{ID: "0-756-0-SMA"},
			},
		},
		{
			Name:        "No coordinates",
			Identifiers: []domain.CatalogIdentifier{{ID: "0-756-0-XYZ"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Stations_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Stations(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_Stations_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, searchBody)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Stations(context.Background(), "Switzerland")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Stations_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Stations(context.Background(), "Switzerland")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Stations_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad territory")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Stations(context.Background(), "???")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad territory")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Stations_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Stations(context.Background(), "Switzerland")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
