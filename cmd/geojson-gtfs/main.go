package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"geojson-gtfs/internal/config"
	"geojson-gtfs/internal/db"
	"geojson-gtfs/internal/metrics"
	"geojson-gtfs/internal/publisher"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	if cfg.LogFormat != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.Debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &cli.App{
		Name:  "geojson-gtfs",
		Usage: "Generate GTFS feeds from GeoJSON line features",

		Commands: []*cli.Command{
			generateCommand(cfg),
			verifyCommand(),
			exportCommand(cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

// openStore connects to the configured database, switching to dbName when set.
// It returns nil when no database is configured.
func openStore(ctx context.Context, cfg *config.Config, dbName string) (*db.Store, error) {
	if cfg.DatabaseDriver == "" {
		return nil, nil
	}
	dsn := cfg.DatabaseURL
	if dbName != "" {
		var err error
		dsn, err = db.WithDBName(cfg.DatabaseDriver, dsn, dbName)
		if err != nil {
			return nil, err
		}
	}
	store, err := db.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("feed store ready")
	return store, nil
}

// startMetrics returns nil when neither a listen address nor a textfile is configured.
func startMetrics(ctx context.Context, cfg *config.Config, workers int) *metrics.Collector {
	if cfg.MetricsAddr == "" && cfg.MetricsTextfile == "" {
		return nil
	}
	mcol := metrics.NewCollector(workers)
	if cfg.MetricsAddr != "" {
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
	return mcol
}

// wrapPublisherMetrics keeps a nil collector from becoming a non-nil interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c
}
