package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/jackc/pgx/v5"
)

const stationColumns = `wigos_id, name, territory, longitude, latitude, elevation`

func (s *Store) StationByID(ctx context.Context, wigosID string) (domain.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM synop_station WHERE wigos_id = $1`

	st, err := scanStation(s.pool.QueryRow(ctx, query, wigosID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Station{}, domain.ErrNotFound
	}
	return st, err
}

func (s *Store) IdentifierByAlias(ctx context.Context, identifier string) (domain.StationIdentifier, error) {
	query := `SELECT identifier, wigos_id FROM synop_station_identifier WHERE identifier = $1`

	var id domain.StationIdentifier
	err := s.pool.QueryRow(ctx, query, identifier).Scan(&id.Identifier, &id.WIGOSID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StationIdentifier{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StationIdentifier{}, err
	}
	return id, nil
}

// UpsertStation inserts or updates a station. The geometry is rebuilt from
// the station's coordinates in the same statement.
func (s *Store) UpsertStation(ctx context.Context, st domain.Station) error {
	query := `
		INSERT INTO synop_station (wigos_id, name, territory, longitude, latitude, elevation, geom)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326))
		ON CONFLICT (wigos_id) DO UPDATE SET
			name = EXCLUDED.name,
			territory = EXCLUDED.territory,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			elevation = EXCLUDED.elevation,
			geom = EXCLUDED.geom
	`

	geom := st.Geom()
	_, err := s.pool.Exec(ctx, query,
		st.WIGOSID,
		st.Name,
		st.Territory,
		st.Longitude(),
		st.Latitude(),
		st.Elevation,
		geom.Lon,
		geom.Lat,
	)
	if err != nil {
		return fmt.Errorf("upsert station %s: %w", st.WIGOSID, err)
	}
	return nil
}

// UpsertIdentifier records an alias. An alias already assigned to another
// station is moved to this one.
func (s *Store) UpsertIdentifier(ctx context.Context, id domain.StationIdentifier) error {
	query := `
		INSERT INTO synop_station_identifier (wigos_id, identifier)
		VALUES ($1, $2)
		ON CONFLICT (identifier) DO UPDATE SET wigos_id = EXCLUDED.wigos_id
	`

	if _, err := s.pool.Exec(ctx, query, id.WIGOSID, id.Identifier); err != nil {
		return fmt.Errorf("upsert identifier %s: %w", id.Identifier, err)
	}
	return nil
}

// ListStations returns stations ordered by id, restricted to territory when
// it is not empty.
func (s *Store) ListStations(ctx context.Context, territory string) ([]domain.Station, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM synop_station
		WHERE $1 = '' OR territory = $1
		ORDER BY wigos_id
	`

	rows, err := s.pool.Query(ctx, query, territory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

func scanStation(row pgx.Row) (domain.Station, error) {
	var (
		wigosID, name string
		territory     *string
		lon, lat      float64
		elevation     *float64
	)
	if err := row.Scan(&wigosID, &name, &territory, &lon, &lat, &elevation); err != nil {
		return domain.Station{}, err
	}

	st, err := domain.NewStation(wigosID, name, lon, lat)
	if err != nil {
		return domain.Station{}, fmt.Errorf("station %s: %w", wigosID, err)
	}
	st.Territory = territory
	st.Elevation = elevation
	return st, nil
}
