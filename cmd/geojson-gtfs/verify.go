package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"geojson-gtfs/internal/generate"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Parse GTFS zips and report what they contain",
		ArgsUsage: "ZIP...",
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("no zip files given")
			}
			var errs []error
			for _, path := range paths {
				report, err := generate.Verify(path)
				if err != nil {
					log.Error().Err(err).Str("path", path).Msg("feed is not valid GTFS")
					errs = append(errs, err)
					continue
				}
				for _, w := range report.Warnings {
					log.Debug().Str("path", path).Str("warning", w).Msg("parse warning")
				}
				log.Info().
					Str("path", path).
					Int("agencies", report.Agencies).
					Int("routes", report.Routes).
					Int("stops", report.Stops).
					Int("services", report.Services).
					Int("trips", report.Trips).
					Int("stop_times", report.StopTimes).
					Int("shapes", report.Shapes).
					Int("warnings", len(report.Warnings)).
					Msg("feed verified")
			}
			return errors.Join(errs...)
		},
	}
}
