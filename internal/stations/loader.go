// Package stations synchronises the local station table with the external
// station catalog.
package stations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/synop-ingest/internal/domain"
)

// Catalog lists the published stations of a territory.
type Catalog interface {
	Stations(ctx context.Context, territory string) ([]domain.CatalogStation, error)
}

// Store persists stations and their aliases.
type Store interface {
	UpsertStation(ctx context.Context, st domain.Station) error
	UpsertIdentifier(ctx context.Context, id domain.StationIdentifier) error
}

// Report summarises one load.
type Report struct {
	Territories       int
	FailedTerritories []string
	Upserted          int
	Skipped           int
	Failed            int
	Aliases           int
}

// Loader copies catalog stations into the store.
type Loader struct {
	catalog Catalog
	store   Store
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(catalog Catalog, store Store, logger *slog.Logger) *Loader {
	return &Loader{catalog: catalog, store: store, logger: logger}
}

// Load synchronises every territory in turn. A failing territory or station
// is logged and counted; only cancellation stops the load early.
func (l *Loader) Load(ctx context.Context, territories []string) (Report, error) {
	var report Report
	for _, territory := range territories {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Territories++

		l.logger.Info("loading stations", "territory", territory)
		entries, err := l.catalog.Stations(ctx, territory)
		if err != nil {
			l.logger.Error("station catalog request failed", "territory", territory, "error", err)
			report.FailedTerritories = append(report.FailedTerritories, territory)
			continue
		}

		for _, entry := range entries {
			l.loadStation(ctx, territory, entry, &report)
		}
	}

	l.logger.Info("station load finished",
		"territories", report.Territories,
		"failed_territories", len(report.FailedTerritories),
		"upserted", report.Upserted,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"aliases", report.Aliases,
	)
	return report, nil
}

func (l *Loader) loadStation(ctx context.Context, territory string, entry domain.CatalogStation, report *Report) {
	st, err := toStation(entry)
	if err != nil {
		l.logger.Debug("skipping catalog station", "territory", territory, "name", entry.Name, "reason", err)
		report.Skipped++
		return
	}

	if err := l.store.UpsertStation(ctx, st); err != nil {
		l.logger.Error("station upsert failed", "station", st.WIGOSID, "error", err)
		report.Failed++
		return
	}
	report.Upserted++

	for _, alias := range entry.Aliases() {
		id := domain.StationIdentifier{Identifier: alias, WIGOSID: st.WIGOSID}
		if err := l.store.UpsertIdentifier(ctx, id); err != nil {
			l.logger.Error("station alias upsert failed", "station", st.WIGOSID, "alias", alias, "error", err)
			continue
		}
		report.Aliases++
	}
}

func toStation(entry domain.CatalogStation) (domain.Station, error) {
	id := entry.PrimaryID()
	if id == "" {
		return domain.Station{}, fmt.Errorf("no wigos id")
	}
	if entry.Longitude == nil || entry.Latitude == nil {
		return domain.Station{}, fmt.Errorf("station %s has no coordinates", id)
	}

	st, err := domain.NewStation(id, entry.Name, *entry.Longitude, *entry.Latitude)
	if err != nil {
		return domain.Station{}, err
	}
	st.Territory = entry.Territory
	st.Elevation = entry.Elevation
	return st, nil
}
