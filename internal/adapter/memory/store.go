// Package memory is an in-process store with the same behavior as the
// PostGIS store, for tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/pipeline"
)

type obsKey struct {
	wigosID string
	unix    int64
}

func keyOf(wigosID string, t time.Time) obsKey {
	return obsKey{wigosID: wigosID, unix: t.UTC().UnixNano()}
}

// Store keeps stations, aliases and observations in maps.
type Store struct {
	mu           sync.Mutex
	stations     map[string]domain.Station
	identifiers  map[string]domain.StationIdentifier
	observations map[obsKey]domain.Observation
	nextID       int64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		stations:     make(map[string]domain.Station),
		identifiers:  make(map[string]domain.StationIdentifier),
		observations: make(map[obsKey]domain.Observation),
	}
}

// UpsertStation inserts or replaces a station.
func (s *Store) UpsertStation(_ context.Context, st domain.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[st.WIGOSID] = st
	return nil
}

// UpsertIdentifier inserts an alias or repoints it to another station.
func (s *Store) UpsertIdentifier(_ context.Context, id domain.StationIdentifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stations[id.WIGOSID]; !ok {
		return fmt.Errorf("station %s does not exist", id.WIGOSID)
	}
	s.identifiers[id.Identifier] = id
	return nil
}

func (s *Store) StationByID(_ context.Context, wigosID string) (domain.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stations[wigosID]
	if !ok {
		return domain.Station{}, domain.ErrNotFound
	}
	return st, nil
}

func (s *Store) IdentifierByAlias(_ context.Context, identifier string) (domain.StationIdentifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.identifiers[identifier]
	if !ok {
		return domain.StationIdentifier{}, domain.ErrNotFound
	}
	return id, nil
}

// InTx runs fn against a copy of the observations and swaps it in only when
// fn succeeds. Transactions are serialized.
func (s *Store) InTx(ctx context.Context, fn func(tx pipeline.ObservationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &tx{store: s, observations: make(map[obsKey]domain.Observation, len(s.observations)), nextID: s.nextID}
	for k, v := range s.observations {
		tx.observations[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.observations = tx.observations
	s.nextID = tx.nextID
	return nil
}

// Observation returns the stored observation for a (station, time) slot.
func (s *Store) Observation(wigosID string, t time.Time) (domain.Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs, ok := s.observations[keyOf(wigosID, t)]
	return obs, ok
}

// ObservationCount returns the number of stored observations.
func (s *Store) ObservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observations)
}

func (s *Store) ListDates(_ context.Context) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool)
	var dates []time.Time
	for _, obs := range s.observations {
		k := obs.Time.UnixNano()
		if !seen[k] {
			seen[k] = true
			dates = append(dates, obs.Time.UTC())
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// ListStations returns stations ordered by id, restricted to territory when
// it is not empty.
func (s *Store) ListStations(_ context.Context, territory string) ([]domain.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Station
	for _, st := range s.stations {
		if territory != "" && (st.Territory == nil || *st.Territory != territory) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WIGOSID < out[j].WIGOSID })
	return out, nil
}

func (s *Store) CountStationsByTerritory(_ context.Context, t time.Time, params []string) ([]domain.TerritoryCount, error) {
	names, err := domain.ValidateParameters(params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	const unknown = "\x00"
	counts := make(map[string]map[string]bool)
	for _, obs := range s.observations {
		if !obs.Time.Equal(t) || !hasAll(&obs, names) {
			continue
		}
		territory := unknown
		if st, ok := s.stations[obs.WIGOSID]; ok && st.Territory != nil {
			territory = *st.Territory
		}
		if counts[territory] == nil {
			counts[territory] = make(map[string]bool)
		}
		counts[territory][obs.WIGOSID] = true
	}

	out := make([]domain.TerritoryCount, 0, len(counts))
	for territory, stations := range counts {
		tc := domain.TerritoryCount{Stations: len(stations)}
		if territory != unknown {
			name := territory
			tc.Territory = &name
		}
		out = append(out, tc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Territory, out[j].Territory
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})
	return out, nil
}

// CheckReadiness always succeeds.
func (s *Store) CheckReadiness(context.Context) error { return nil }

func hasAll(obs *domain.Observation, names []string) bool {
	for _, n := range names {
		p, _ := domain.LookupParameter(n)
		if p.Get(obs) == nil {
			return false
		}
	}
	return true
}

type tx struct {
	store        *Store
	observations map[obsKey]domain.Observation
	nextID       int64
}

func (t *tx) InsertObservation(_ context.Context, obs domain.Observation) (int64, bool, error) {
	if _, ok := t.store.stations[obs.WIGOSID]; !ok {
		return 0, false, fmt.Errorf("station %s does not exist", obs.WIGOSID)
	}
	k := keyOf(obs.WIGOSID, obs.Time)
	if _, ok := t.observations[k]; ok {
		return 0, false, nil
	}
	t.nextID++
	obs.ID = t.nextID
	obs.Time = obs.Time.UTC()
	t.observations[k] = obs
	return obs.ID, true, nil
}

func (t *tx) ObservationForUpdate(_ context.Context, wigosID string, at time.Time) (domain.Observation, error) {
	obs, ok := t.observations[keyOf(wigosID, at)]
	if !ok {
		return domain.Observation{}, domain.ErrNotFound
	}
	return obs, nil
}

func (t *tx) UpdateObservation(_ context.Context, obs domain.Observation) error {
	k := keyOf(obs.WIGOSID, obs.Time)
	existing, ok := t.observations[k]
	if !ok || existing.ID != obs.ID {
		return fmt.Errorf("observation %d: %w", obs.ID, domain.ErrNotFound)
	}
	t.observations[k] = obs
	return nil
}
