package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/cofc/campushunt/internal/auth"
	"github.com/cofc/campushunt/internal/config"
	"github.com/cofc/campushunt/internal/database"
	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/handler/health"
	"github.com/cofc/campushunt/internal/hunt"
	"github.com/cofc/campushunt/internal/metrics"
	"github.com/cofc/campushunt/internal/migrations"
	"github.com/cofc/campushunt/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	eventTZ, err := cfg.Location()
	if err != nil {
		return err
	}
	// Event start times are wall-clock values in the event timezone.
	now := func() time.Time { return time.Now().In(eventTZ) }

	// --- Database ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	store, err := docstore.New(ctx, db)
	if err != nil {
		return fmt.Errorf("initializing document store: %w", err)
	}
	schema, err := migrations.Version(ctx, db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", schema)

	if cfg.SeedDemo {
		if err := server.SeedLocations(ctx, logger, store); err != nil {
			return fmt.Errorf("seeding locations: %w", err)
		}
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	// --- Core ---
	sweeper := hunt.NewSweeper(store, logger, recorder, now)
	awarder := hunt.NewAwarder(store, auth.ContextProvider{}, logger, recorder, now)
	watcher := hunt.NewWatcher(store, sweeper, logger, cfg.SweepInterval)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:           store,
		Awarder:         awarder,
		Sweeper:         sweeper,
		Verifier:        auth.NewVerifier(cfg.JWTSecret, "campushunt"),
		ClaimsPerMinute: cfg.ClaimRatePerMin,
		Now:             now,
		Mount: func(r chi.Router) {
			r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
				"sqlite":  store,
				"watcher": health.Ready(watcher.Ready(), "location watcher"),
			}).Routes())
			r.Handle("/metrics", metrics.Handler(reg))
		},
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "event_timezone", eventTZ.String())
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
