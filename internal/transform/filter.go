package transform

import "geojson-gtfs/internal/geo"

// RetainedPoint is a coordinate that survived proximity filtering.
type RetainedPoint struct {
	Point geo.Point
	// Index is the position in the feature's original coordinate sequence.
	Index int
	// SegmentKm is the distance from the previously retained point, 0 for the first.
	SegmentKm float64
	// CumulativeKm is the running path distance, including distance measured to
	// points that were filtered out.
	CumulativeKm float64
}

// filterState is the fold carried over a feature's coordinates.
type filterState struct {
	previous *geo.Point
	total    float64
}

// FilterPoints keeps points farther than thresholdKm from the previously kept point.
// The first point is always kept.
func FilterPoints(points []geo.Point, thresholdKm float64) []RetainedPoint {
	var st filterState
	out := make([]RetainedPoint, 0, len(points))
	for i, p := range points {
		if st.previous == nil {
			out = append(out, RetainedPoint{Point: p, Index: i})
			st.previous = &points[i]
			continue
		}

		d := geo.DistanceKm(*st.previous, p)
		st.total += d
		if d <= thresholdKm {
			continue
		}

		out = append(out, RetainedPoint{Point: p, Index: i, SegmentKm: d, CumulativeKm: st.total})
		st.previous = &points[i]
	}
	return out
}
