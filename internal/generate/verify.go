package generate

import (
	"fmt"
	"os"

	"github.com/jamespfennell/gtfs"
)

// Report summarizes a parsed GTFS static feed.
type Report struct {
	Path      string
	Agencies  int
	Routes    int
	Stops     int
	Services  int
	Trips     int
	StopTimes int
	Shapes    int
	Warnings  []string
}

// Verify parses a GTFS zip with an independent reader and counts what it found.
func Verify(path string) (Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return Report{}, fmt.Errorf("parse %s: %w", path, err)
	}

	r := Report{
		Path:     path,
		Agencies: len(static.Agencies),
		Routes:   len(static.Routes),
		Stops:    len(static.Stops),
		Services: len(static.Services),
		Trips:    len(static.Trips),
		Shapes:   len(static.Shapes),
	}
	for _, trip := range static.Trips {
		r.StopTimes += len(trip.StopTimes)
	}
	for _, w := range static.Warnings {
		r.Warnings = append(r.Warnings, fmt.Sprint(w))
	}
	return r, nil
}
