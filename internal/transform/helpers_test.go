package transform

import (
	"errors"
	"fmt"
	"strconv"

	geojson "github.com/paulmach/go.geojson"

	"geojson-gtfs/internal/geo"
	"geojson-gtfs/internal/gtfs"
)

var errBoom = errors.New("boom")

// stubMapper builds small records and logs every call in order.
type stubMapper struct {
	speed           float64
	agencyID        string
	stopsByPosition bool
	failOn          string
	calls           []string
}

func (m *stubMapper) record(call string) error {
	m.calls = append(m.calls, call)
	if m.failOn != "" && m.failOn == call {
		return errBoom
	}
	return nil
}

func (m *stubMapper) Agency(f *geojson.Feature, i int) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("agency:%d", i)); err != nil {
		return nil, err
	}
	id := m.agencyID
	if id == "" {
		id = fmt.Sprintf("agency-%d", i)
	}
	return gtfs.Record{"agency_id": id, "agency_name": fmt.Sprintf("Agency of feature %d", i)}, nil
}

func (m *stubMapper) Route(f *geojson.Feature, i int) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("route:%d", i)); err != nil {
		return nil, err
	}
	return gtfs.Record{"route_id": fmt.Sprintf("route-%d", i)}, nil
}

func (m *stubMapper) Stop(p geo.Point, idx int, f *geojson.Feature, i int) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("stop:%d:%d", i, idx)); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%d-%d", i, idx)
	if m.stopsByPosition {
		id = fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
	}
	return gtfs.Record{"stop_id": id, "stop_lat": p.Lat, "stop_lon": p.Lon}, nil
}

func (m *stubMapper) ShapePoint(p geo.Point, idx int, f *geojson.Feature, i int, distanceKm float64) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("shape:%d:%d", i, idx)); err != nil {
		return nil, err
	}
	return gtfs.Record{"shape_id": fmt.Sprintf("shape-%d", i), "shape_pt_sequence": idx, "shape_dist_traveled": distanceKm}, nil
}

func (m *stubMapper) Trip(w gtfs.ServiceWindow, f *geojson.Feature, i int) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("trip:%d:%v", i, w["id"])); err != nil {
		return nil, err
	}
	return gtfs.Record{"trip_id": fmt.Sprintf("%d-%v", i, w["id"]), "service_id": w["id"]}, nil
}

func (m *stubMapper) Frequency(trip gtfs.Record, w gtfs.ServiceWindow, f *geojson.Feature, i int) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("frequency:%v", trip["trip_id"])); err != nil {
		return nil, err
	}
	return gtfs.Record{"trip_id": trip["trip_id"], "headway_secs": 600}, nil
}

func (m *stubMapper) StopTime(trip, stop gtfs.Record, seq int, arrival, departure string) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("stoptime:%v:%d", trip["trip_id"], seq)); err != nil {
		return nil, err
	}
	return gtfs.Record{
		"trip_id":        trip["trip_id"],
		"stop_id":        stop["stop_id"],
		"stop_sequence":  seq,
		"arrival_time":   arrival,
		"departure_time": departure,
	}, nil
}

func (m *stubMapper) Service(w gtfs.ServiceWindow) (gtfs.Record, error) {
	if err := m.record(fmt.Sprintf("service:%v", w["id"])); err != nil {
		return nil, err
	}
	return gtfs.Record{"service_id": w["id"]}, nil
}

func (m *stubMapper) VehicleSpeed(f *geojson.Feature, i int) (float64, error) {
	if err := m.record(fmt.Sprintf("speed:%d", i)); err != nil {
		return 0, err
	}
	return m.speed, nil
}

func collection(paths ...[][]float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range paths {
		fc.AddFeature(geojson.NewLineStringFeature(p))
	}
	return fc
}

func windows(ids ...string) []gtfs.ServiceWindow {
	out := make([]gtfs.ServiceWindow, len(ids))
	for i, id := range ids {
		out[i] = gtfs.ServiceWindow{"id": id}
	}
	return out
}

func field(records []gtfs.Record, name string) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r[name]
	}
	return out
}

func secondsString(sec int) string { return strconv.Itoa(sec) }

func points(coords [][]float64) []geo.Point {
	out := make([]geo.Point, len(coords))
	for i, c := range coords {
		out[i] = geo.Point{Lon: c[0], Lat: c[1]}
	}
	return out
}

var meridianPath = [][]float64{{0, 0}, {0, 0.01}, {0, 0.02}}
