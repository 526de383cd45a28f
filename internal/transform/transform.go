package transform

import (
	"errors"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog/log"

	"geojson-gtfs/internal/geo"
	"geojson-gtfs/internal/gtfs"
)

const featureCollection = "FeatureCollection"

// Transform builds a schedule bundle from fc. Any error from cfg.Mapper or
// cfg.PrepareFeature is returned as is, and no partial bundle is returned.
func Transform(fc *geojson.FeatureCollection, cfg Config) (*gtfs.Bundle, error) {
	if fc == nil {
		return nil, &InputFormatError{FeatureIndex: -1}
	}
	if fc.Type != featureCollection {
		return nil, &InputFormatError{Type: fc.Type, FeatureIndex: -1}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := cfg.Mapper

	if cfg.PrepareFeature != nil {
		log.Debug().Int("features", len(fc.Features)).Msg("preparing GeoJSON features")
		for i, f := range fc.Features {
			if err := cfg.PrepareFeature(f, i); err != nil {
				return nil, err
			}
		}
	}

	paths := make([][]geo.Point, len(fc.Features))
	for i, f := range fc.Features {
		pts, err := featurePoints(f, i)
		if err != nil {
			return nil, err
		}
		paths[i] = pts
	}

	b := &gtfs.Bundle{}
	for i, f := range fc.Features {
		agency, err := m.Agency(f, i)
		if err != nil {
			return nil, err
		}
		b.Agency = append(b.Agency, agency)
	}
	for _, w := range cfg.ServiceWindows {
		service, err := m.Service(w)
		if err != nil {
			return nil, err
		}
		b.Calendar = append(b.Calendar, service)
	}
	for i, f := range fc.Features {
		route, err := m.Route(f, i)
		if err != nil {
			return nil, err
		}
		b.Routes = append(b.Routes, route)
	}

	for i, f := range fc.Features {
		if err := transformFeature(b, &cfg, f, i, paths[i]); err != nil {
			return nil, err
		}
	}

	b.Agency = Dedup(b.Agency, gtfs.AgencyID)
	b.Calendar = Dedup(b.Calendar, gtfs.ServiceID)
	b.Routes = Dedup(b.Routes, gtfs.RouteID)
	b.Trips = Dedup(b.Trips, gtfs.TripID)
	b.Stops = Dedup(b.Stops, gtfs.StopID)
	b.Stats.Features = len(fc.Features)
	return b, nil
}

func transformFeature(b *gtfs.Bundle, cfg *Config, f *geojson.Feature, featureIndex int, pts []geo.Point) error {
	m := cfg.Mapper
	log.Debug().Int("feature", featureIndex).Int("points", len(pts)).Msg("processing GeoJSON feature")

	speed, err := m.VehicleSpeed(f, featureIndex)
	if err != nil {
		return err
	}
	if err := checkSpeed(speed, featureIndex); err != nil {
		return err
	}

	retained := FilterPoints(pts, cfg.SkipStopsWithinDistance)
	if skipped := len(pts) - len(retained); skipped > 0 {
		log.Debug().
			Int("feature", featureIndex).
			Int("skipped", skipped).
			Float64("within_km", cfg.SkipStopsWithinDistance).
			Msg("skipped points close to their previous stop")
		b.Stats.SkippedPoints += skipped
	}

	stops := make([]gtfs.Record, len(retained))
	for j, rp := range retained {
		stop, err := m.Stop(rp.Point, rp.Index, f, featureIndex)
		if err != nil {
			return err
		}
		shapePoint, err := m.ShapePoint(rp.Point, rp.Index, f, featureIndex, rp.CumulativeKm)
		if err != nil {
			return err
		}
		stops[j] = stop
		b.Stops = append(b.Stops, stop)
		b.Shapes = append(b.Shapes, shapePoint)
	}
	b.Stats.RetainedStops += len(retained)

	timings, err := Schedule(retained, speed, cfg.StopDuration)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.FeatureIndex = featureIndex
		}
		return err
	}

	for _, w := range cfg.ServiceWindows {
		trip, err := m.Trip(w, f, featureIndex)
		if err != nil {
			return err
		}
		b.Trips = append(b.Trips, trip)

		frequency, err := m.Frequency(trip, w, f, featureIndex)
		if err != nil {
			return err
		}
		b.Frequencies = append(b.Frequencies, frequency)

		for seq, timing := range timings {
			stopTime, err := m.StopTime(trip, stops[seq], seq, cfg.formatTime(timing.Arrival), cfg.formatTime(timing.Departure))
			if err != nil {
				return err
			}
			b.StopTimes = append(b.StopTimes, stopTime)
		}
		b.Stats.Trips++
	}
	return nil
}

// featurePoints reads the ordered coordinates of a LineString or MultiPoint feature.
func featurePoints(f *geojson.Feature, featureIndex int) ([]geo.Point, error) {
	if f == nil || f.Geometry == nil {
		return nil, &InputFormatError{Type: featureCollection, FeatureIndex: featureIndex, Reason: "missing geometry"}
	}

	var coords [][]float64
	switch f.Geometry.Type {
	case geojson.GeometryLineString:
		coords = f.Geometry.LineString
	case geojson.GeometryMultiPoint:
		coords = f.Geometry.MultiPoint
	default:
		return nil, &InputFormatError{
			Type:         featureCollection,
			FeatureIndex: featureIndex,
			Reason:       "geometry " + string(f.Geometry.Type) + " is not an ordered coordinate sequence",
		}
	}

	pts := make([]geo.Point, len(coords))
	for j, c := range coords {
		p, ok := geo.PointFromCoordinates(c)
		if !ok {
			return nil, &InputFormatError{Type: featureCollection, FeatureIndex: featureIndex, Reason: "coordinate is not a [lon, lat] pair"}
		}
		pts[j] = p
	}
	return pts, nil
}
