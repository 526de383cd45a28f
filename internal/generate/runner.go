// Package generate runs GeoJSON to GTFS jobs: decode, transform, write the
// zip, then optionally store, publish and record metrics.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"geojson-gtfs/internal/db"
	"geojson-gtfs/internal/feedwriter"
	"geojson-gtfs/internal/gtfs"
	"geojson-gtfs/internal/metrics"
	"geojson-gtfs/internal/publisher"
	"geojson-gtfs/internal/rules"
	"geojson-gtfs/internal/transform"
)

// Store saves generated bundles.
type Store interface {
	SaveBundle(ctx context.Context, name string, b *gtfs.Bundle) (db.Feed, error)
}

// Publisher announces generated feeds.
type Publisher interface {
	PublishFeed(msg publisher.FeedMessage) error
}

// Runner generates one feed per input file. Store, Publisher and Metrics are optional.
type Runner struct {
	Rules     rules.Rules
	OutputDir string
	Workers   int

	Store     Store
	Publisher Publisher
	Metrics   *metrics.Collector
}

// Result is the outcome of one input.
type Result struct {
	Input   string
	Feed    string
	Output  string
	FeedID  int64
	Stats   gtfs.Stats
	Written feedwriter.Written
	Err     error
}

// Run processes inputs concurrently and returns one result per input in input
// order. The returned error joins every failed job's error.
func (r *Runner) Run(ctx context.Context, inputs []string) ([]Result, error) {
	mapper, err := rules.Compile(r.Rules)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i int
		Result
	}
	p := pool.NewWithResults[indexed]().WithMaxGoroutines(workers)
	for i, input := range inputs {
		i, input := i, input
		p.Go(func() indexed {
			return indexed{i: i, Result: r.runOne(ctx, mapper, input)}
		})
	}
	out := p.Wait()
	sort.Slice(out, func(a, b int) bool { return out[a].i < out[b].i })

	results := make([]Result, len(out))
	var errs []error
	for i, res := range out {
		results[i] = res.Result
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Input, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

// FeedName derives a feed name from an input path.
func FeedName(input string) string {
	base := filepath.Base(input)
	for _, ext := range []string{".geojson", ".json"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r *Runner) runOne(ctx context.Context, mapper *rules.Mapper, input string) Result {
	res := Result{Input: input, Feed: FeedName(input)}
	logger := log.With().Str("feed", res.Feed).Str("input", input).Logger()

	fail := func(stage string, err error) Result {
		if r.Metrics != nil {
			r.Metrics.ErrorInc(stage)
		}
		logger.Error().Err(err).Str("stage", stage).Msg("feed generation failed")
		res.Err = err
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail("read", err)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fail("read", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fail("decode", fmt.Errorf("decode GeoJSON: %w", err))
	}

	start := time.Now()
	b, err := transform.Transform(fc, mapper.Config())
	if err != nil {
		return fail("transform", err)
	}
	elapsed := time.Since(start)
	res.Stats = b.Stats
	if r.Metrics != nil {
		r.Metrics.ObserveBundle(b, elapsed)
	}
	logger.Info().
		Int("features", b.Stats.Features).
		Int("stops", b.Stats.RetainedStops).
		Int("skipped", b.Stats.SkippedPoints).
		Int("trips", b.Stats.Trips).
		Dur("took", elapsed).
		Msg("transformed feed")

	res.Output = filepath.Join(r.OutputDir, res.Feed+".zip")
	res.Written, err = writeZipFile(res.Output, b)
	if err != nil {
		return fail("write", err)
	}
	if r.Metrics != nil {
		r.Metrics.FeedGeneratedInc()
		for file, n := range res.Written {
			r.Metrics.RecordsWrittenAdd(file, n)
		}
	}

	if r.Store != nil {
		feed, err := r.Store.SaveBundle(ctx, res.Feed, b)
		if err != nil {
			return fail("store", fmt.Errorf("store feed: %w", err))
		}
		res.FeedID = feed.ID
		if r.Metrics != nil {
			r.Metrics.FeedStoredInc()
		}
		logger.Debug().Int64("feed_id", feed.ID).Msg("stored feed")
	}

	if r.Publisher != nil {
		msg := publisher.NewFeedMessage(res.Feed, res.FeedID, res.Output, b)
		if err := r.Publisher.PublishFeed(msg); err != nil {
			// The zip is already written; announcing it is best effort.
			if r.Metrics != nil {
				r.Metrics.ErrorInc("publish")
			}
			logger.Warn().Err(err).Msg("failed to publish feed")
		}
	}

	return res
}

// writeZipFile writes next to path and renames into place so readers never see
// a partial archive.
func writeZipFile(path string, b *gtfs.Bundle) (feedwriter.Written, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	written, err := feedwriter.WriteZip(tmp, b)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, err
	}
	return written, nil
}
