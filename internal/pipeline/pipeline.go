package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/jonboulle/clockwork"
)

// StateTracker persists the last ingested timestep.
type StateTracker interface {
	LastUpdate() (time.Time, bool, error)
	WriteTimestep(ts time.Time) error
}

// Transformer turns a source file into normalized station records.
type Transformer interface {
	Transform(ctx context.Context, source string, timestep time.Time) ([]domain.NormalizedRecord, Phase, error)
}

// RecordReconciler stores one normalized record for a resolved station.
type RecordReconciler interface {
	Reconcile(ctx context.Context, station domain.Station, rec domain.NormalizedRecord) domain.ReconcileOutcome
}

// cycleScoped is implemented by stages that hold state which must not
// outlive one cycle.
type cycleScoped interface {
	Reset()
}

// ObservationPublisher forwards stored observations downstream.
type ObservationPublisher interface {
	Publish(ctx context.Context, observations []domain.Observation) error
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	DatasetsDir string
	Interval    time.Duration
	Clock       clockwork.Clock
	Publisher   ObservationPublisher
}

const defaultInterval = 15 * time.Minute

// Pipeline runs ingestion cycles: one timestep per cycle, from locating the
// provider's file through to advancing the state.
type Pipeline struct {
	state       StateTracker
	transformer Transformer
	resolver    StationResolver
	reconciler  RecordReconciler
	publisher   ObservationPublisher
	datasetsDir string
	interval    time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	last        atomic.Pointer[CycleReport]
}

// New creates a Pipeline with the given stages and observability.
func New(state StateTracker, t Transformer, r StationResolver, rc RecordReconciler, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Pipeline{
		state:       state,
		transformer: t,
		resolver:    r,
		reconciler:  rc,
		publisher:   opts.Publisher,
		datasetsDir: opts.DatasetsDir,
		interval:    opts.Interval,
		clock:       opts.Clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a cycle has finished without aborting,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed an ingestion cycle yet")
	}
	return nil
}

// LastReport returns the report of the most recent cycle, if any has run.
func (p *Pipeline) LastReport() (CycleReport, bool) {
	r := p.last.Load()
	if r == nil {
		return CycleReport{}, false
	}
	return *r, true
}

// Run executes a cycle immediately and then on every interval tick until the
// context is cancelled. Completed cycles are followed by another cycle right
// away so a backlog of published files drains without waiting for ticks.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "datasets_dir", p.datasetsDir)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.drain(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

func (p *Pipeline) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if report := p.RunCycle(ctx); report.Outcome != OutcomeCompleted {
			return
		}
	}
}

// RunCycle runs one ingestion cycle to a terminal outcome. The state only
// advances when the cycle completes.
func (p *Pipeline) RunCycle(ctx context.Context) CycleReport {
	start := p.clock.Now()
	report := p.runCycle(ctx)

	p.metrics.CyclesTotal.WithLabelValues(report.Outcome.String()).Inc()
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	p.last.Store(&report)

	switch report.Outcome {
	case OutcomeCompleted:
		p.ready.Store(true)
		p.logger.Info("cycle completed",
			"timestep", domain.FormatTimestamp(report.Timestep),
			"records", report.Records,
			"inserted", report.Inserted,
			"updated", report.Updated,
			"failed", report.Failed,
			"unresolved", report.Unresolved,
		)
	case OutcomeSkipped:
		p.ready.Store(true)
	case OutcomeAborted:
		p.logger.Error("cycle aborted",
			"timestep", formatOptional(report.Timestep),
			"phase", report.Phase.String(),
			"error", report.Err,
		)
	}
	return report
}

func (p *Pipeline) runCycle(ctx context.Context) CycleReport {
	report := CycleReport{Phase: PhaseResolvingTimestep}

	ts, err := p.nextTimestep()
	if err != nil {
		return report.abort(err)
	}
	report.Timestep = ts
	logger := p.logger.With("timestep", domain.FormatTimestamp(ts))
	logger.Info("trying ingestion")

	report.Phase = PhaseLocatingFile
	source, found, err := p.locate(ts, logger)
	if err != nil {
		return report.abort(err)
	}
	if !found {
		report.Outcome = OutcomeSkipped
		return report
	}

	report.Phase = PhaseConverting
	records, phase, err := p.transformer.Transform(ctx, source, ts)
	report.Phase = phase
	if err != nil {
		return report.abort(err)
	}
	report.Records = len(records)
	p.metrics.RecordsDecoded.Observe(float64(len(records)))

	report.Phase = PhaseReconciling
	if r, ok := p.resolver.(cycleScoped); ok {
		r.Reset()
	}
	stored, err := p.reconcileAll(ctx, records, &report, logger)
	if err != nil {
		return report.abort(err)
	}
	p.publish(ctx, stored, logger)

	report.Phase = PhaseUpdatingState
	if attempted := report.Records - report.Unresolved; attempted > 0 && report.Failed == attempted {
		logger.Warn("all reconciliations failed, advancing state anyway", "failed", report.Failed)
	}
	if err := p.state.WriteTimestep(ts); err != nil {
		return report.abort(fmt.Errorf("update state: %w", err))
	}
	p.metrics.LastTimestep.Set(float64(ts.Unix()))

	report.Outcome = OutcomeCompleted
	return report
}

// nextTimestep picks the slot after the last ingested one, or after now when
// nothing has been ingested yet.
func (p *Pipeline) nextTimestep() (time.Time, error) {
	last, ok, err := p.state.LastUpdate()
	if err != nil {
		return time.Time{}, fmt.Errorf("read state: %w", err)
	}
	if !ok {
		last = p.clock.Now()
	}
	return domain.NextTimestep(last), nil
}

// locate returns the source file path for ts and whether it has been published.
func (p *Pipeline) locate(ts time.Time, logger *slog.Logger) (string, bool, error) {
	if _, err := os.Stat(p.datasetsDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("datasets directory not found, skipping", "path", p.datasetsDir)
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat datasets dir: %w", err)
	}

	name := domain.SourceFileName(ts)
	path := filepath.Join(p.datasetsDir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("data not found, skipping", "file", name)
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat source file: %w", err)
	}
	logger.Info("found data, starting processing", "file", name)
	return path, true, nil
}

// reconcileAll resolves and stores every record. Per-station failures are
// counted in report; only cancellation stops the loop.
func (p *Pipeline) reconcileAll(ctx context.Context, records []domain.NormalizedRecord, report *CycleReport, logger *slog.Logger) ([]domain.Observation, error) {
	var stored []domain.Observation
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		res, err := p.resolver.Resolve(ctx, rec.StationID)
		if err != nil {
			report.Failed++
			p.metrics.ReconcileTotal.WithLabelValues(domain.Failed.String()).Inc()
			logger.Error("resolve station failed, skipping", "station", rec.StationID, "error", err)
			continue
		}
		if !res.Resolved {
			report.Unresolved++
			p.metrics.UnresolvedStations.Inc()
			logger.Info("station not found, skipping", "station", rec.StationID)
			continue
		}
		if res.ViaAlias {
			logger.Debug("station resolved via alias", "alias", rec.StationID, "station", res.Station.WIGOSID)
		}

		outcome := p.reconciler.Reconcile(ctx, res.Station, rec)
		switch outcome.Result {
		case domain.Inserted:
			report.Inserted++
			stored = append(stored, outcome.Observation)
		case domain.Updated:
			report.Updated++
			stored = append(stored, outcome.Observation)
		default:
			report.Failed++
		}
	}
	return stored, nil
}

// publish forwards stored observations when a publisher is configured.
// Failures are logged and never block the cycle.
func (p *Pipeline) publish(ctx context.Context, observations []domain.Observation, logger *slog.Logger) {
	if p.publisher == nil || len(observations) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, observations); err != nil {
		p.metrics.PublishErrors.Inc()
		logger.Error("publish observations failed", "count", len(observations), "error", err)
		return
	}
	p.metrics.MessagesProduced.Add(float64(len(observations)))
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return domain.FormatTimestamp(t)
}
