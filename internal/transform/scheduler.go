package transform

import (
	"fmt"
	"math"
)

// maxTripSeconds bounds every arrival and departure of a trip.
const maxTripSeconds = math.MaxInt32

// StopTiming holds arrival and departure in seconds from the start of a trip.
type StopTiming struct {
	Arrival   int
	Departure int
}

// Schedule derives stop timings from segment distances, a speed in km/h and a
// dwell time in seconds. Travel time is rounded up per segment, so rounding
// error accumulates along a trip.
func Schedule(points []RetainedPoint, speedKmh float64, dwellSec int) ([]StopTiming, error) {
	if err := checkSpeed(speedKmh, -1); err != nil {
		return nil, err
	}
	if dwellSec < 0 || dwellSec > maxTripSeconds {
		return nil, &ConfigurationError{Field: "stopDuration", Value: dwellSec, FeatureIndex: -1, Reason: "must be a non-negative number of seconds"}
	}

	speedMps := speedKmh * 1000 / 3600
	elapsed := 0
	out := make([]StopTiming, len(points))
	for i, p := range points {
		segment := math.Ceil(p.SegmentKm * 1000 / speedMps)
		if math.IsNaN(segment) || math.IsInf(segment, 0) || segment > float64(maxTripSeconds-elapsed-dwellSec) {
			return nil, &ConfigurationError{
				Field:        "vehicle speed",
				Value:        speedKmh,
				FeatureIndex: -1,
				Reason:       fmt.Sprintf("stop %d would be reached after more than %d seconds", i, maxTripSeconds),
			}
		}
		elapsed += int(segment)
		out[i] = StopTiming{Arrival: elapsed, Departure: elapsed + dwellSec}
	}
	return out, nil
}

func checkSpeed(speedKmh float64, featureIndex int) error {
	if speedKmh > 0 && !math.IsInf(speedKmh, 1) {
		return nil
	}
	return &ConfigurationError{
		Field:        "vehicle speed",
		Value:        speedKmh,
		FeatureIndex: featureIndex,
		Reason:       "must be a positive, finite number of km/h",
	}
}
