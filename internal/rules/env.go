package rules

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"geojson-gtfs/internal/geo"
	"geojson-gtfs/internal/gtfs"
)

// Expression environments. Every kind gets the helper functions plus the
// variables describing what is being mapped.

func helpers() map[string]any {
	return map[string]any{
		"sprintf": fmt.Sprintf,
		"daySeconds": func(s string) int {
			sec, _ := gtfs.ParseDaySeconds(s)
			return sec
		},
		"clock": gtfs.FormatDaySeconds,
	}
}

func properties(f *geojson.Feature) map[string]any {
	if f == nil || f.Properties == nil {
		return map[string]any{}
	}
	return f.Properties
}

func featureEnv(f *geojson.Feature, featureIndex int) map[string]any {
	env := helpers()
	env["properties"] = properties(f)
	env["featureIndex"] = featureIndex
	return env
}

func pointEnv(p geo.Point, coordsIndex int, f *geojson.Feature, featureIndex int) map[string]any {
	env := featureEnv(f, featureIndex)
	env["coords"] = []float64{p.Lon, p.Lat}
	env["lon"] = p.Lon
	env["lat"] = p.Lat
	env["coordsIndex"] = coordsIndex
	return env
}

func shapePointEnv(p geo.Point, coordsIndex int, f *geojson.Feature, featureIndex int, distanceKm float64) map[string]any {
	env := pointEnv(p, coordsIndex, f, featureIndex)
	env["distance"] = distanceKm
	return env
}

func window(w gtfs.ServiceWindow) map[string]any {
	if w == nil {
		return map[string]any{}
	}
	return w
}

func record(r gtfs.Record) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return r
}

func windowEnv(w gtfs.ServiceWindow) map[string]any {
	env := helpers()
	env["serviceWindow"] = window(w)
	return env
}

func tripEnv(w gtfs.ServiceWindow, f *geojson.Feature, featureIndex int) map[string]any {
	env := featureEnv(f, featureIndex)
	env["serviceWindow"] = window(w)
	return env
}

func frequencyEnv(trip gtfs.Record, w gtfs.ServiceWindow, f *geojson.Feature, featureIndex int) map[string]any {
	env := tripEnv(w, f, featureIndex)
	env["trip"] = record(trip)
	return env
}

func stopTimeEnv(trip, stop gtfs.Record, stopSequence int, arrivalTime, departureTime string) map[string]any {
	env := helpers()
	env["trip"] = record(trip)
	env["stop"] = record(stop)
	env["stopSequence"] = stopSequence
	env["arrivalTime"] = arrivalTime
	env["departureTime"] = departureTime
	return env
}
