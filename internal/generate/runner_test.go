package generate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geojson-gtfs/internal/db"
	"geojson-gtfs/internal/gtfs"
	"geojson-gtfs/internal/metrics"
	"geojson-gtfs/internal/publisher"
	"geojson-gtfs/internal/rules"
	"geojson-gtfs/internal/transform"
)

const lineGeoJSON = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"route_id": "L1", "name": "Line 1", "speed": 36},
    "geometry": {"type": "LineString", "coordinates": [[0, 0], [0, 0.01], [0, 0.02]]}
  }]
}`

const pointGeoJSON = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {},
    "geometry": {"type": "Point", "coordinates": [0, 0]}
  }]
}`

type fakeStore struct {
	mu    sync.Mutex
	names []string
}

func (s *fakeStore) SaveBundle(_ context.Context, name string, _ *gtfs.Bundle) (db.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return db.Feed{ID: int64(len(s.names)), Name: name}, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publisher.FeedMessage
	err  error
}

func (p *fakePublisher) PublishFeed(msg publisher.FeedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFeedName(t *testing.T) {
	assert.Equal(t, "metro", FeedName("/data/metro.geojson"))
	assert.Equal(t, "tram", FeedName("tram.JSON"))
	assert.Equal(t, "bus.lines", FeedName("bus.lines.txt"))
	assert.Equal(t, "ferry", FeedName("ferry"))
}

func TestRunner_Run(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "feeds")
	good := writeInput(t, in, "metro.geojson", lineGeoJSON)
	bad := writeInput(t, in, "points.geojson", pointGeoJSON)
	missing := filepath.Join(in, "missing.geojson")

	store := &fakeStore{}
	pub := &fakePublisher{}
	m := metrics.NewCollector(2)
	r := &Runner{Rules: rules.Default(), OutputDir: out, Workers: 2, Store: store, Publisher: pub, Metrics: m}

	results, err := r.Run(context.Background(), []string{good, bad, missing})
	require.Error(t, err)
	require.Len(t, results, 3)

	ok := results[0]
	require.NoError(t, ok.Err)
	assert.Equal(t, "metro", ok.Feed)
	assert.Equal(t, filepath.Join(out, "metro.zip"), ok.Output)
	assert.Equal(t, int64(1), ok.FeedID)
	assert.Equal(t, 3, ok.Stats.RetainedStops)
	assert.Equal(t, 3, ok.Written["stops.txt"])
	assert.FileExists(t, ok.Output)

	var inputErr *transform.InputFormatError
	assert.True(t, errors.As(results[1].Err, &inputErr))
	assert.Empty(t, results[1].Output)
	assert.Error(t, results[2].Err)

	assert.Equal(t, []string{"metro"}, store.names)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "metro", pub.msgs[0].Feed)
	assert.Equal(t, int64(1), pub.msgs[0].FeedID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedsGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoredFeeds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransformErrors.WithLabelValues("transform")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransformErrors.WithLabelValues("read")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsWritten.WithLabelValues("stop_times.txt")))
}

func TestRunner_PublishFailureKeepsFeed(t *testing.T) {
	in := t.TempDir()
	good := writeInput(t, in, "metro.geojson", lineGeoJSON)
	pub := &fakePublisher{err: errors.New("nats down")}
	m := metrics.NewCollector(1)
	r := &Runner{Rules: rules.Default(), OutputDir: t.TempDir(), Publisher: pub, Metrics: m}

	results, err := r.Run(context.Background(), []string{good})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.FileExists(t, results[0].Output)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransformErrors.WithLabelValues("publish")))
}

func TestRunner_WriteFailureIsNotCountedAsGenerated(t *testing.T) {
	in := t.TempDir()
	good := writeInput(t, in, "metro.geojson", lineGeoJSON)
	out := t.TempDir()
	// a non-empty directory where the zip should go makes the final rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(out, "metro.zip", "keep"), 0o755))

	m := metrics.NewCollector(1)
	r := &Runner{Rules: rules.Default(), OutputDir: out, Metrics: m}
	results, err := r.Run(context.Background(), []string{good})
	require.Error(t, err)
	require.Error(t, results[0].Err)

	assert.Zero(t, testutil.ToFloat64(m.FeedsGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransformErrors.WithLabelValues("write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Features))
}

func TestRunner_InvalidRules(t *testing.T) {
	rs := rules.Default()
	rs.VehicleSpeed = "("
	r := &Runner{Rules: rs, OutputDir: t.TempDir()}
	_, err := r.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunner_CancelledContext(t *testing.T) {
	in := t.TempDir()
	good := writeInput(t, in, "metro.geojson", lineGeoJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Rules: rules.Default(), OutputDir: t.TempDir()}
	results, err := r.Run(ctx, []string{good})
	require.Error(t, err)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
}

func TestGenerateVerifyExport(t *testing.T) {
	ctx := context.Background()
	in := t.TempDir()
	good := writeInput(t, in, "metro.geojson", lineGeoJSON)

	store, err := db.Open(db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "feeds.db")))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	r := &Runner{Rules: rules.Default(), OutputDir: t.TempDir(), Store: store}
	results, err := r.Run(ctx, []string{good})
	require.NoError(t, err)

	report, err := Verify(results[0].Output)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Agencies)
	assert.Equal(t, 1, report.Routes)
	assert.Equal(t, 3, report.Stops)
	assert.Equal(t, 1, report.Trips)
	assert.Equal(t, 3, report.StopTimes)

	var buf bytes.Buffer
	feed, written, err := ExportLatest(ctx, store, "metro", &buf)
	require.NoError(t, err)
	assert.Equal(t, results[0].FeedID, feed.ID)
	assert.Equal(t, results[0].Written, written)

	exported := filepath.Join(t.TempDir(), "export.zip")
	require.NoError(t, os.WriteFile(exported, buf.Bytes(), 0o644))
	again, err := Verify(exported)
	require.NoError(t, err)
	assert.Equal(t, report.Stops, again.Stops)
	assert.Equal(t, report.StopTimes, again.StopTimes)
}

func TestExportLatest_Missing(t *testing.T) {
	store, err := db.Open(db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "feeds.db")))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(context.Background()))

	var buf bytes.Buffer
	_, _, err = ExportLatest(context.Background(), store, "nope", &buf)
	assert.True(t, errors.Is(err, db.ErrFeedNotFound))
}
