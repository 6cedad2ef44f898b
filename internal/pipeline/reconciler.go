package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/observability"
)

// ObservationTx is the unit of work a single reconciliation runs in.
type ObservationTx interface {
	// InsertObservation stores obs unless its (station, time) slot is taken.
	// It reports false, with no error, when the slot already exists.
	InsertObservation(ctx context.Context, obs domain.Observation) (id int64, inserted bool, err error)
	// ObservationForUpdate loads and locks the row in a (station, time) slot.
	ObservationForUpdate(ctx context.Context, wigosID string, t time.Time) (domain.Observation, error)
	// UpdateObservation rewrites every parameter of the row with obs.ID.
	UpdateObservation(ctx context.Context, obs domain.Observation) error
}

// ObservationStore runs fn in a transaction that commits when fn returns nil
// and rolls back otherwise, including on panic.
type ObservationStore interface {
	InTx(ctx context.Context, fn func(tx ObservationTx) error) error
}

// Reconciler makes normalized records durable: insert when the slot is new,
// otherwise merge the record's parameters into the stored row.
type Reconciler struct {
	store   ObservationStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReconciler creates a Reconciler writing to store.
func NewReconciler(store ObservationStore, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		logger:  logger.With("component", "reconciler"),
		metrics: metrics,
	}
}

// Reconcile stores rec for station. Failures are reported in the outcome and
// leave the store as it was.
func (r *Reconciler) Reconcile(ctx context.Context, station domain.Station, rec domain.NormalizedRecord) domain.ReconcileOutcome {
	obs, ignored, err := domain.NewObservation(station.WIGOSID, rec)
	if err != nil {
		return r.failed(station, rec, ignored, fmt.Errorf("build observation: %w", err))
	}
	if len(ignored) > 0 {
		r.logger.Debug("ignoring unknown parameters", "station", station.WIGOSID, "parameters", ignored)
	}

	var outcome domain.ReconcileOutcome
	err = r.store.InTx(ctx, func(tx ObservationTx) error {
		id, inserted, err := tx.InsertObservation(ctx, obs)
		if err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
		if inserted {
			obs.ID = id
			outcome = domain.ReconcileOutcome{Result: domain.Inserted, Observation: obs}
			return nil
		}

		existing, err := tx.ObservationForUpdate(ctx, obs.WIGOSID, obs.Time)
		if err != nil {
			return fmt.Errorf("load existing observation: %w", err)
		}
		existing.Merge(obs)
		if err := tx.UpdateObservation(ctx, existing); err != nil {
			return fmt.Errorf("update observation: %w", err)
		}
		outcome = domain.ReconcileOutcome{Result: domain.Updated, Observation: existing}
		return nil
	})
	if err != nil {
		return r.failed(station, rec, ignored, err)
	}

	outcome.Ignored = ignored
	r.metrics.ReconcileTotal.WithLabelValues(outcome.Result.String()).Inc()
	r.logger.Debug("observation reconciled",
		"station", station.WIGOSID,
		"time", domain.FormatTimestamp(rec.Time),
		"outcome", outcome.Result.String(),
	)
	return outcome
}

func (r *Reconciler) failed(station domain.Station, rec domain.NormalizedRecord, ignored []string, err error) domain.ReconcileOutcome {
	r.metrics.ReconcileTotal.WithLabelValues(domain.Failed.String()).Inc()
	r.logger.Error("reconcile failed, skipping station",
		"station", station.WIGOSID,
		"decoded_id", rec.StationID,
		"time", domain.FormatTimestamp(rec.Time),
		"error", err,
	)
	return domain.ReconcileOutcome{Result: domain.Failed, Ignored: ignored, Reason: err}
}
