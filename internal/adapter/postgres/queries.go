package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ListDates returns the distinct observation times, ascending.
func (s *Store) ListDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT time FROM synop_observation ORDER BY time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		dates = append(dates, t.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

// CountStationsByTerritory counts, per territory, the stations whose
// observation at t has every one of params set.
func (s *Store) CountStationsByTerritory(ctx context.Context, t time.Time, params []string) ([]domain.TerritoryCount, error) {
	names, err := domain.ValidateParameters(params)
	if err != nil {
		return nil, err
	}

	conds := make([]string, len(names))
	for i, n := range names {
		conds[i] = fmt.Sprintf("o.%s IS NOT NULL", pgx.Identifier{n}.Sanitize())
	}
	query := fmt.Sprintf(`
		SELECT s.territory, COUNT(DISTINCT o.wigos_id)
		FROM synop_observation o
		JOIN synop_station s ON s.wigos_id = o.wigos_id
		WHERE o.time = $1 AND %s
		GROUP BY s.territory
		ORDER BY s.territory NULLS LAST`,
		strings.Join(conds, " AND "),
	)

	rows, err := s.pool.Query(ctx, query, t.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.TerritoryCount
	for rows.Next() {
		var tc domain.TerritoryCount
		if err := rows.Scan(&tc.Territory, &tc.Stations); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
