package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/synop-ingest/internal/adapter/bufr"
	httpadapter "github.com/couchcryptid/synop-ingest/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/synop-ingest/internal/adapter/kafka"
	"github.com/couchcryptid/synop-ingest/internal/adapter/postgres"
	"github.com/couchcryptid/synop-ingest/internal/config"
	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/couchcryptid/synop-ingest/internal/pipeline"
	"github.com/couchcryptid/synop-ingest/internal/state"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

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

	transformer := pipeline.NewTransformer(
		bufr.NewConverter(cfg.ConverterCommand, nil, logger),
		bufr.NewDecoder(cfg.DecoderCommand, cfg.DecoderArgs, logger),
		"",
		logger,
	)
	resolver := pipeline.NewCachedResolver(pipeline.NewResolver(store), cfg.ResolverCacheSize, metrics)
	reconciler := pipeline.NewReconciler(store, logger, metrics)

	opts := pipeline.Options{
		DatasetsDir: cfg.DatasetsDir,
		Interval:    cfg.IngestInterval,
	}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		logger.Info("observation publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("observation publishing disabled")
	}

	p := pipeline.New(state.NewTracker(cfg.StateDir, logger), transformer, resolver, reconciler, logger, metrics, opts)

	if *once {
		report := p.RunCycle(ctx)
		closeWriter(writer, logger)
		if report.Outcome == pipeline.OutcomeAborted {
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingestion loop.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// The writer and the pool stay open until the running cycle has returned.
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop within shutdown timeout")
	}
	closeWriter(writer, logger)

	logger.Info("shutdown complete")
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
