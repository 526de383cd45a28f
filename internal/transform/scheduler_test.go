package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule(t *testing.T) {
	tests := []struct {
		name     string
		segments []float64
		speedKmh float64
		dwell    int
		want     []StopTiming
	}{
		{
			name:     "first stop departs after dwell",
			segments: []float64{0},
			speedKmh: 36,
			dwell:    30,
			want:     []StopTiming{{0, 30}},
		},
		{
			name:     "exact segments",
			segments: []float64{0, 1, 0.5},
			speedKmh: 36,
			dwell:    0,
			want:     []StopTiming{{0, 0}, {100, 100}, {150, 150}},
		},
		{
			name:     "rounding up per segment accumulates",
			segments: []float64{0, 0.0001, 0.0001, 0.0001},
			speedKmh: 36,
			dwell:    5,
			want:     []StopTiming{{0, 5}, {1, 6}, {2, 7}, {3, 8}},
		},
		{
			name:     "zero length segment adds no time",
			segments: []float64{0, 0, 0.2},
			speedKmh: 72,
			dwell:    10,
			want:     []StopTiming{{0, 10}, {0, 10}, {10, 20}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := make([]RetainedPoint, len(tt.segments))
			for i, s := range tt.segments {
				pts[i] = RetainedPoint{Index: i, SegmentKm: s}
			}
			got, err := Schedule(pts, tt.speedKmh, tt.dwell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedule_NonDecreasing(t *testing.T) {
	pts := FilterPoints(points([][]float64{{13.40, 52.50}, {13.41, 52.51}, {13.41, 52.51}, {13.45, 52.52}, {13.46, 52.50}}), 0.05)
	got, err := Schedule(pts, 27.5, 20)
	require.NoError(t, err)
	require.Len(t, got, len(pts))

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Arrival, got[i-1].Arrival)
		assert.GreaterOrEqual(t, got[i].Departure, got[i-1].Departure)
		assert.Equal(t, got[i].Arrival+20, got[i].Departure)
	}
}

func TestSchedule_RejectsInvalidInput(t *testing.T) {
	pts := []RetainedPoint{{}, {SegmentKm: 1}}
	for _, speed := range []float64{0, -1, math.NaN(), math.Inf(1), 5e-324, 1e-300} {
		_, err := Schedule(pts, speed, 0)
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr, "speed %v", speed)
	}

	_, err := Schedule(pts, 30, -1)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Schedule(pts, 30, math.MaxInt32+1)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSchedule_RejectsTripsTooLongToRepresent(t *testing.T) {
	// at 1 m/s each segment takes 1.1e9 s: one fits, two do not
	pts := []RetainedPoint{{}, {SegmentKm: 1.1e6}, {SegmentKm: 1.1e6}}

	_, err := Schedule(pts, 3.6, 0)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "vehicle speed", cfgErr.Field)

	timings, err := Schedule(pts[:2], 3.6, 0)
	require.NoError(t, err)
	assert.Equal(t, 1_100_000_000, timings[1].Arrival)
}
