// Command load-stations copies the station catalog of each configured
// territory into the station tables. Territories given as arguments override
// STATION_COUNTRIES.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/synop-ingest/internal/adapter/oscar"
	"github.com/couchcryptid/synop-ingest/internal/adapter/postgres"
	"github.com/couchcryptid/synop-ingest/internal/config"
	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/couchcryptid/synop-ingest/internal/stations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	territories := cfg.StationCountries
	if len(os.Args) > 1 {
		territories = os.Args[1:]
	}
	if len(territories) == 0 {
		logger.Error("no territories to load: set STATION_COUNTRIES or pass territory names as arguments")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare schema", "error", err)
		os.Exit(1)
	}

	catalog := oscar.NewClient(cfg.OSCARURL, cfg.OSCARTimeout, logger)
	report, err := stations.NewLoader(catalog, store, logger).Load(ctx, territories)
	if err != nil {
		logger.Error("station load interrupted", "error", err)
		os.Exit(1)
	}
	if len(report.FailedTerritories) == len(territories) {
		logger.Error("every territory failed to load", "territories", report.FailedTerritories)
		os.Exit(1)
	}
}
