package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/adapter/memory"
	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/couchcryptid/synop-ingest/internal/pipeline"
	"github.com/stretchr/testify/require"
)

var (
	zurich = "0-20000-0-06660"
	geneva = "0-20000-0-06700"
)

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seededStore holds Zurich (primary id only) and Geneva (also known by the
// alias "06700").
func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	zrh, err := domain.NewStation(zurich, "Zurich / Fluntern", 8.5656, 47.3779)
	require.NoError(t, err)
	zrh.Territory = ptr("Switzerland")
	require.NoError(t, s.UpsertStation(ctx, zrh))

	gva, err := domain.NewStation(geneva, "Geneve / Cointrin", 6.1278, 46.2475)
	require.NoError(t, err)
	gva.Territory = ptr("Switzerland")
	require.NoError(t, s.UpsertStation(ctx, gva))
	require.NoError(t, s.UpsertIdentifier(ctx, domain.StationIdentifier{Identifier: "06700", WIGOSID: geneva}))

	return s
}

func decodeCollections(t *testing.T, doc string) []domain.Collection {
	t.Helper()
	var colls []domain.Collection
	require.NoError(t, json.Unmarshal([]byte(doc), &colls))
	return colls
}

// fakeConverter writes a placeholder output file, or fails. When hold is
// set, it signals entered and waits for hold to be closed first.
type fakeConverter struct {
	mu      sync.Mutex
	err     error
	outputs []string
	entered chan struct{}
	hold    chan struct{}
}

func (f *fakeConverter) Convert(_ context.Context, _, output string) error {
	if f.hold != nil {
		close(f.entered)
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs = append(f.outputs, output)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte("BUFR"), 0o600)
}

// fakeDecoder returns fixed collections for an existing input, or fails.
type fakeDecoder struct {
	collections []domain.Collection
	err         error
}

func (f *fakeDecoder) Decode(_ context.Context, path string) ([]domain.Collection, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.collections, nil
}

// failingStore rejects every transaction.
type failingStore struct{}

func (failingStore) InTx(context.Context, func(pipeline.ObservationTx) error) error {
	return errors.New("database is read-only")
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.Observation
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, observations []domain.Observation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, observations...)
	return nil
}

func record(station string, ts time.Time, props map[string]float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{StationID: station, Time: ts, Properties: props}
}

func newMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}
