package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"geojson-gtfs/internal/config"
	"geojson-gtfs/internal/generate"
)

func exportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the latest stored version of a feed as a GTFS zip",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feed", Usage: "feed name", Required: true},
			&cli.StringFlag{Name: "out", Usage: "zip file to write", Required: true},
			&cli.StringFlag{Name: "db-name", Usage: "database to read from, overriding the configured one"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			store, err := openStore(ctx, cfg, c.String("db-name"))
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			if store == nil {
				return fmt.Errorf("no database configured: set DATABASE_URL, PGDATABASE or SQLITE_PATH")
			}
			defer store.Close()

			out, err := os.Create(c.String("out"))
			if err != nil {
				return err
			}
			feed, written, err := generate.ExportLatest(ctx, store, c.String("feed"), out)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(c.String("out"))
				return err
			}

			log.Info().
				Str("feed", feed.Name).
				Int64("feed_id", feed.ID).
				Time("created_at", feed.CreatedAt).
				Interface("records", written).
				Str("out", c.String("out")).
				Msg("feed exported")
			return nil
		},
	}
}
