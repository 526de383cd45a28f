package transform

import (
	"math"

	geojson "github.com/paulmach/go.geojson"

	"geojson-gtfs/internal/geo"
	"geojson-gtfs/internal/gtfs"
)

// Mapper builds GTFS records from features, coordinates and service windows.
// Implementations must be synchronous; any returned error aborts the transform
// and is handed back to the caller unchanged.
type Mapper interface {
	Agency(f *geojson.Feature, featureIndex int) (gtfs.Record, error)
	Route(f *geojson.Feature, featureIndex int) (gtfs.Record, error)
	Stop(p geo.Point, coordsIndex int, f *geojson.Feature, featureIndex int) (gtfs.Record, error)
	// ShapePoint receives the cumulative distance in kilometers from the feature's start.
	ShapePoint(p geo.Point, coordsIndex int, f *geojson.Feature, featureIndex int, distanceKm float64) (gtfs.Record, error)
	Trip(w gtfs.ServiceWindow, f *geojson.Feature, featureIndex int) (gtfs.Record, error)
	Frequency(trip gtfs.Record, w gtfs.ServiceWindow, f *geojson.Feature, featureIndex int) (gtfs.Record, error)
	StopTime(trip, stop gtfs.Record, stopSequence int, arrivalTime, departureTime string) (gtfs.Record, error)
	Service(w gtfs.ServiceWindow) (gtfs.Record, error)
	// VehicleSpeed returns the feature's vehicle speed in km/h.
	VehicleSpeed(f *geojson.Feature, featureIndex int) (float64, error)
}

// Config controls a single Transform call.
type Config struct {
	ServiceWindows []gtfs.ServiceWindow

	// SkipStopsWithinDistance drops points within this many kilometers of the
	// previously kept point.
	SkipStopsWithinDistance float64

	// StopDuration is the dwell time in seconds added to arrival to get departure.
	StopDuration int

	// PrepareFeature, when set, runs once per feature before anything else and may
	// modify the feature in place.
	PrepareFeature func(f *geojson.Feature, featureIndex int) error

	Mapper Mapper

	// FormatTime renders elapsed seconds as a clock time. Defaults to gtfs.FormatDaySeconds.
	FormatTime func(sec int) string
}

func (c *Config) validate() error {
	if c.Mapper == nil {
		return &ConfigurationError{Field: "mapper", Value: nil, FeatureIndex: -1, Reason: "a mapper is required"}
	}
	if c.SkipStopsWithinDistance < 0 || math.IsNaN(c.SkipStopsWithinDistance) {
		return &ConfigurationError{Field: "skipStopsWithinDistance", Value: c.SkipStopsWithinDistance, FeatureIndex: -1, Reason: "must be a non-negative number of kilometers"}
	}
	if c.StopDuration < 0 {
		return &ConfigurationError{Field: "stopDuration", Value: c.StopDuration, FeatureIndex: -1, Reason: "must be a non-negative number of seconds"}
	}
	return nil
}

func (c *Config) formatTime(sec int) string {
	if c.FormatTime != nil {
		return c.FormatTime(sec)
	}
	return gtfs.FormatDaySeconds(sec)
}
