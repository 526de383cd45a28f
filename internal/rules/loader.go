package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"geojson-gtfs/internal/gtfs"
)

// LoadFile reads a YAML rules file and merges it over Default.
// An empty path returns Default.
func LoadFile(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	r, err := Parse(data)
	if err != nil {
		return Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes YAML rules and merges them over Default. Unknown keys are rejected.
func Parse(data []byte) (Rules, error) {
	var r Rules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, err
	}
	return Merge(Default(), r), nil
}

// Validate checks value constraints that expressions cannot express.
func Validate(r Rules) error {
	if err := validator.New().Struct(r); err != nil {
		return err
	}
	for i, w := range r.ServiceWindows {
		if err := validateWindow(w); err != nil {
			return fmt.Errorf("service window %d: %w", i, err)
		}
	}
	return nil
}

func validateWindow(w gtfs.ServiceWindow) error {
	if id, ok := w["serviceId"]; !ok || id == nil || id == "" {
		return errors.New("serviceId is required")
	}
	startRaw, hasStart := w["startTime"]
	endRaw, hasEnd := w["endTime"]
	if !hasStart || !hasEnd {
		return nil
	}
	start, ok := gtfs.ParseDaySeconds(fmt.Sprint(startRaw))
	if !ok {
		return fmt.Errorf("invalid startTime %v", startRaw)
	}
	end, ok := gtfs.ParseDaySeconds(fmt.Sprint(endRaw))
	if !ok {
		return fmt.Errorf("invalid endTime %v", endRaw)
	}
	if end <= start {
		return fmt.Errorf("endTime %v is not after startTime %v", endRaw, startRaw)
	}
	return nil
}
