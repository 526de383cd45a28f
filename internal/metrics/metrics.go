package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"geojson-gtfs/internal/gtfs"
)

type Collector struct {
	reg *prometheus.Registry

	FeedsGenerated prometheus.Counter
	Features       prometheus.Counter
	RetainedStops  prometheus.Counter
	SkippedPoints  prometheus.Counter
	Trips          prometheus.Counter

	RecordsWritten  *prometheus.CounterVec // file label, e.g. stops.txt
	TransformErrors *prometheus.CounterVec // stage label: read|decode|transform|write|store|publish

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	StoredFeeds prometheus.Counter

	TransformDuration prometheus.Histogram
	PublishDuration   prometheus.Histogram

	Workers prometheus.Gauge
}

func NewCollector(workers int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FeedsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_feeds_generated_total",
			Help: "Total feeds generated successfully.",
		}),
		Features: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_features_total",
			Help: "Total GeoJSON features transformed.",
		}),
		RetainedStops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_retained_stops_total",
			Help: "Total coordinates kept as stops.",
		}),
		SkippedPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_skipped_points_total",
			Help: "Total coordinates dropped for being too close to the previous stop.",
		}),
		Trips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_trips_total",
			Help: "Total trips generated.",
		}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geojson_gtfs_records_written_total",
			Help: "Records written per GTFS file.",
		}, []string{"file"}),
		TransformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geojson_gtfs_errors_total",
			Help: "Failed generation jobs by stage.",
		}, []string{"stage"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geojson_gtfs_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		StoredFeeds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geojson_gtfs_stored_feeds_total",
			Help: "Total feeds saved to the database.",
		}),
		TransformDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geojson_gtfs_transform_duration_seconds",
			Help:    "Duration of a single GeoJSON to GTFS transform.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geojson_gtfs_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geojson_gtfs_workers",
			Help: "Configured number of concurrent generation jobs.",
		}),
	}

	reg.MustRegister(
		c.FeedsGenerated, c.Features, c.RetainedStops, c.SkippedPoints, c.Trips,
		c.RecordsWritten, c.TransformErrors,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.StoredFeeds, c.TransformDuration, c.PublishDuration,
		c.Workers,
	)
	c.Workers.Set(float64(workers))

	return c
}

// ObserveBundle records the outcome of one successful transform.
func (c *Collector) ObserveBundle(b *gtfs.Bundle, d time.Duration) {
	c.Features.Add(float64(b.Stats.Features))
	c.RetainedStops.Add(float64(b.Stats.RetainedStops))
	c.SkippedPoints.Add(float64(b.Stats.SkippedPoints))
	c.Trips.Add(float64(b.Stats.Trips))
	c.TransformDuration.Observe(d.Seconds())
}

// FeedGeneratedInc counts a feed whose zip is in place.
func (c *Collector) FeedGeneratedInc() { c.FeedsGenerated.Inc() }

func (c *Collector) RecordsWrittenAdd(file string, n int) {
	c.RecordsWritten.WithLabelValues(file).Add(float64(n))
}

func (c *Collector) ErrorInc(stage string) { c.TransformErrors.WithLabelValues(stage).Inc() }

func (c *Collector) FeedStoredInc() { c.StoredFeeds.Inc() }

// PublisherMetrics implementation.

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}

// WriteTextfile dumps the registry in the node_exporter textfile format, for
// batch runs that exit before they could be scraped.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
