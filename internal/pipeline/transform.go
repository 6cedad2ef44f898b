package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
)

// Converter upgrades a BUFR file to the edition the decoder reads.
type Converter interface {
	Convert(ctx context.Context, input, output string) error
}

// Decoder turns a BUFR file into decoded collections.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]domain.Collection, error)
}

// ReportTransformer converts, decodes and normalizes one source file inside a
// scratch directory that is removed before it returns.
type ReportTransformer struct {
	converter Converter
	decoder   Decoder
	tempDir   string
	logger    *slog.Logger
}

// NewTransformer creates a ReportTransformer. An empty tempDir uses the
// system default.
func NewTransformer(converter Converter, decoder Decoder, tempDir string, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		converter: converter,
		decoder:   decoder,
		tempDir:   tempDir,
		logger:    logger,
	}
}

// Transform returns one normalized record per station in the file at
// source, all tagged with timestep. The returned phase is where it stopped.
func (t *ReportTransformer) Transform(ctx context.Context, source string, timestep time.Time) ([]domain.NormalizedRecord, Phase, error) {
	workDir, err := os.MkdirTemp(t.tempDir, "synop-ingest-*")
	if err != nil {
		return nil, PhaseConverting, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			t.logger.Warn("remove work dir failed", "path", workDir, "error", err)
		}
	}()

	converted := filepath.Join(workDir, "out.DAT")
	t.logger.Info("converting to bufr edition 4", "file", filepath.Base(source))
	if err := t.converter.Convert(ctx, source, converted); err != nil {
		return nil, PhaseConverting, err
	}

	t.logger.Info("decoding report", "file", filepath.Base(source))
	collections, err := t.decoder.Decode(ctx, converted)
	if err != nil {
		return nil, PhaseDecoding, err
	}

	records, stats := domain.Normalize(collections, timestep)
	t.logger.Info("report decoded",
		"records", len(records),
		"items", stats.Items,
		"without_feature", stats.WithoutFeature,
		"without_station", stats.WithoutStation,
		"non_numeric", stats.NonNumeric,
	)
	if stats.OffTimestep > 0 {
		t.logger.Debug("items dated off the timestep", "count", stats.OffTimestep)
	}
	return records, PhaseDecoding, nil
}
