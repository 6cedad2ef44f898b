package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/pipeline"
	"github.com/jackc/pgx/v5"
)

var (
	parameterColumns = sanitizedColumns(domain.ParameterNames())

	insertObservationSQL = fmt.Sprintf(`
		INSERT INTO synop_observation (wigos_id, time, %s)
		VALUES (%s)
		ON CONFLICT (wigos_id, time) DO NOTHING
		RETURNING id`,
		strings.Join(parameterColumns, ", "),
		placeholders(1, len(parameterColumns)+2),
	)

	selectObservationSQL = fmt.Sprintf(`
		SELECT id, wigos_id, time, %s
		FROM synop_observation
		WHERE wigos_id = $1 AND time = $2
		FOR UPDATE`,
		strings.Join(parameterColumns, ", "),
	)

	updateObservationSQL = fmt.Sprintf(`
		UPDATE synop_observation SET %s
		WHERE id = $1`,
		assignments(parameterColumns, 2),
	)
)

// InTx runs fn in a transaction. The deferred rollback is a no-op once the
// transaction has committed.
func (s *Store) InTx(ctx context.Context, fn func(tx pipeline.ObservationTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&observationTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type observationTx struct {
	tx pgx.Tx
}

func (t *observationTx) InsertObservation(ctx context.Context, obs domain.Observation) (int64, bool, error) {
	args := make([]any, 0, len(domain.Parameters)+2)
	args = append(args, obs.WIGOSID, obs.Time.UTC())
	for _, p := range domain.Parameters {
		args = append(args, p.Get(&obs))
	}

	var id int64
	err := t.tx.QueryRow(ctx, insertObservationSQL, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (t *observationTx) ObservationForUpdate(ctx context.Context, wigosID string, at time.Time) (domain.Observation, error) {
	var obs domain.Observation
	dest := make([]any, 0, len(domain.Parameters)+3)
	dest = append(dest, &obs.ID, &obs.WIGOSID, &obs.Time)
	for _, p := range domain.Parameters {
		dest = append(dest, p.Field(&obs))
	}

	err := t.tx.QueryRow(ctx, selectObservationSQL, wigosID, at.UTC()).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Observation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Observation{}, err
	}
	obs.Time = obs.Time.UTC()
	return obs, nil
}

func (t *observationTx) UpdateObservation(ctx context.Context, obs domain.Observation) error {
	args := make([]any, 0, len(domain.Parameters)+1)
	args = append(args, obs.ID)
	for _, p := range domain.Parameters {
		args = append(args, p.Get(&obs))
	}

	tag, err := t.tx.Exec(ctx, updateObservationSQL, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("observation %d: %w", obs.ID, domain.ErrNotFound)
	}
	return nil
}

func sanitizedColumns(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = pgx.Identifier{n}.Sanitize()
	}
	return out
}

// placeholders renders "$from, ..., $(from+n-1)".
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}

// assignments renders "col = $from, ..." for an UPDATE.
func assignments(columns []string, from int) string {
	as := make([]string, len(columns))
	for i, c := range columns {
		as[i] = fmt.Sprintf("%s = $%d", c, from+i)
	}
	return strings.Join(as, ", ")
}
