package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"geojson-gtfs/internal/config"
	"geojson-gtfs/internal/generate"
	"geojson-gtfs/internal/publisher"
	"geojson-gtfs/internal/rules"
)

func generateCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Transform GeoJSON files into GTFS zips",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rules", Usage: "YAML rules file merged over the built-in defaults", Value: cfg.RulesFile},
			&cli.StringFlag{Name: "out-dir", Usage: "directory receiving <feed>.zip", Value: cfg.OutputDir},
			&cli.IntFlag{Name: "workers", Usage: "files processed concurrently", Value: cfg.Workers},
			&cli.StringFlag{Name: "db-name", Usage: "database to store feeds in, overriding the configured one"},
		},
		Action: func(c *cli.Context) error {
			inputs := c.Args().Slice()
			if len(inputs) == 0 {
				return fmt.Errorf("no input files given")
			}
			ctx := c.Context

			rs, err := rules.LoadFile(c.String("rules"))
			if err != nil {
				return err
			}

			mctx, stopMetrics := context.WithCancel(ctx)
			defer stopMetrics()
			mcol := startMetrics(mctx, cfg, c.Int("workers"))

			runner := &generate.Runner{
				Rules:     rs,
				OutputDir: c.String("out-dir"),
				Workers:   c.Int("workers"),
				Metrics:   mcol,
			}

			store, err := openStore(ctx, cfg, c.String("db-name"))
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			if store != nil {
				defer store.Close()
				runner.Store = store
			}

			if cfg.NATSURL != "" {
				pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
				if err != nil {
					return fmt.Errorf("nats: %w", err)
				}
				defer pub.Close()
				runner.Publisher = pub
			}

			results, runErr := runner.Run(ctx, inputs)
			generated := 0
			for _, res := range results {
				if res.Err != nil {
					continue
				}
				generated++
				log.Info().
					Str("feed", res.Feed).
					Str("output", res.Output).
					Int64("feed_id", res.FeedID).
					Int("stops", res.Stats.RetainedStops).
					Int("trips", res.Stats.Trips).
					Msg("feed generated")
			}
			log.Info().Int("generated", generated).Int("inputs", len(inputs)).Msg("generation finished")

			if mcol != nil && cfg.MetricsTextfile != "" {
				if err := mcol.WriteTextfile(cfg.MetricsTextfile); err != nil {
					log.Error().Err(err).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics textfile")
				}
			}
			return runErr
		},
	}
}
