package rules

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	geojson "github.com/paulmach/go.geojson"

	"geojson-gtfs/internal/geo"
	"geojson-gtfs/internal/gtfs"
	"geojson-gtfs/internal/transform"
)

// EvalError reports an expression that failed while mapping a record.
type EvalError struct {
	Kind  string
	Field string
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s.%s: %v", e.Kind, e.Field, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

type fieldProgram struct {
	field   string
	program *vm.Program
}

type recordProgram struct {
	kind   string
	fields []fieldProgram
}

// Mapper evaluates compiled rules. It implements transform.Mapper and is safe
// for concurrent use.
type Mapper struct {
	rules Rules

	vehicleSpeed *vm.Program
	prepare      recordProgram
	agency       recordProgram
	route        recordProgram
	stop         recordProgram
	shapePoint   recordProgram
	trip         recordProgram
	frequency    recordProgram
	stopTime     recordProgram
	service      recordProgram
}

var _ transform.Mapper = (*Mapper)(nil)

// Compile validates r and compiles every expression it contains.
func Compile(r Rules) (*Mapper, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	m := &Mapper{rules: r}
	var err error
	m.vehicleSpeed, err = expr.Compile(r.VehicleSpeed, expr.Env(featureEnv(nil, 0)))
	if err != nil {
		return nil, fmt.Errorf("compile vehicleSpeed: %w", err)
	}

	compiles := []struct {
		kind   string
		fields Fields
		env    map[string]any
		dst    *recordProgram
	}{
		{"prepare", r.Prepare, featureEnv(nil, 0), &m.prepare},
		{"agency", r.Agency, featureEnv(nil, 0), &m.agency},
		{"route", r.Route, featureEnv(nil, 0), &m.route},
		{"stop", r.Stop, pointEnv(geo.Point{}, 0, nil, 0), &m.stop},
		{"shapePoint", r.ShapePoint, shapePointEnv(geo.Point{}, 0, nil, 0, 0), &m.shapePoint},
		{"trip", r.Trip, tripEnv(nil, nil, 0), &m.trip},
		{"frequency", r.Frequency, frequencyEnv(nil, nil, nil, 0), &m.frequency},
		{"stopTime", r.StopTime, stopTimeEnv(nil, nil, 0, "", ""), &m.stopTime},
		{"service", r.Service, windowEnv(nil), &m.service},
	}
	for _, c := range compiles {
		rp, err := compileRecord(c.kind, c.fields, c.env)
		if err != nil {
			return nil, err
		}
		*c.dst = rp
	}
	return m, nil
}

func compileRecord(kind string, fields Fields, env map[string]any) (recordProgram, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	rp := recordProgram{kind: kind, fields: make([]fieldProgram, 0, len(names))}
	for _, name := range names {
		p, err := expr.Compile(fields[name], expr.Env(env))
		if err != nil {
			return recordProgram{}, fmt.Errorf("compile %s.%s: %w", kind, name, err)
		}
		rp.fields = append(rp.fields, fieldProgram{field: name, program: p})
	}
	return rp, nil
}

func (rp recordProgram) eval(env map[string]any) (gtfs.Record, error) {
	rec := make(gtfs.Record, len(rp.fields))
	for _, fp := range rp.fields {
		v, err := expr.Run(fp.program, env)
		if err != nil {
			return nil, &EvalError{Kind: rp.kind, Field: fp.field, Err: err}
		}
		rec[fp.field] = v
	}
	return rec, nil
}

// Config returns a transform configuration driven by m.
func (m *Mapper) Config() transform.Config {
	cfg := transform.Config{
		ServiceWindows: m.rules.ServiceWindows,
		Mapper:         m,
	}
	if m.rules.SkipStopsWithinDistance != nil {
		cfg.SkipStopsWithinDistance = *m.rules.SkipStopsWithinDistance
	}
	if m.rules.StopDuration != nil {
		cfg.StopDuration = *m.rules.StopDuration
	}
	if len(m.prepare.fields) > 0 {
		cfg.PrepareFeature = m.PrepareFeature
	}
	return cfg
}

// PrepareFeature assigns the prepare expressions to the feature's properties.
// All expressions see the properties as they were before the call.
func (m *Mapper) PrepareFeature(f *geojson.Feature, featureIndex int) error {
	values, err := m.prepare.eval(featureEnv(f, featureIndex))
	if err != nil {
		return err
	}
	if f.Properties == nil {
		f.Properties = make(map[string]interface{}, len(values))
	}
	for k, v := range values {
		f.Properties[k] = v
	}
	return nil
}

func (m *Mapper) Agency(f *geojson.Feature, featureIndex int) (gtfs.Record, error) {
	return m.agency.eval(featureEnv(f, featureIndex))
}

func (m *Mapper) Route(f *geojson.Feature, featureIndex int) (gtfs.Record, error) {
	return m.route.eval(featureEnv(f, featureIndex))
}

func (m *Mapper) Stop(p geo.Point, coordsIndex int, f *geojson.Feature, featureIndex int) (gtfs.Record, error) {
	return m.stop.eval(pointEnv(p, coordsIndex, f, featureIndex))
}

func (m *Mapper) ShapePoint(p geo.Point, coordsIndex int, f *geojson.Feature, featureIndex int, distanceKm float64) (gtfs.Record, error) {
	return m.shapePoint.eval(shapePointEnv(p, coordsIndex, f, featureIndex, distanceKm))
}

func (m *Mapper) Trip(w gtfs.ServiceWindow, f *geojson.Feature, featureIndex int) (gtfs.Record, error) {
	return m.trip.eval(tripEnv(w, f, featureIndex))
}

func (m *Mapper) Frequency(trip gtfs.Record, w gtfs.ServiceWindow, f *geojson.Feature, featureIndex int) (gtfs.Record, error) {
	return m.frequency.eval(frequencyEnv(trip, w, f, featureIndex))
}

func (m *Mapper) StopTime(trip, stop gtfs.Record, stopSequence int, arrivalTime, departureTime string) (gtfs.Record, error) {
	return m.stopTime.eval(stopTimeEnv(trip, stop, stopSequence, arrivalTime, departureTime))
}

func (m *Mapper) Service(w gtfs.ServiceWindow) (gtfs.Record, error) {
	return m.service.eval(windowEnv(w))
}

func (m *Mapper) VehicleSpeed(f *geojson.Feature, featureIndex int) (float64, error) {
	v, err := expr.Run(m.vehicleSpeed, featureEnv(f, featureIndex))
	if err != nil {
		return 0, &EvalError{Kind: "vehicleSpeed", Err: err}
	}
	speed, ok := toFloat(v)
	if !ok {
		return 0, &EvalError{Kind: "vehicleSpeed", Err: fmt.Errorf("%v (%T) is not a number", v, v)}
	}
	return speed, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
