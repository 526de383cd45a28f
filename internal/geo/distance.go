package geo

import "math"

// Mean earth radius in kilometers, as used by turf and most GeoJSON tooling.
const earthRadiusKm = 6371.0088

// Point is a GeoJSON position. GeoJSON orders coordinates longitude first.
type Point struct {
	Lon float64
	Lat float64
}

// PointFromCoordinates builds a Point from a GeoJSON position ([lon, lat, ...]).
// ok is false when fewer than two values are present.
func PointFromCoordinates(c []float64) (p Point, ok bool) {
	if len(c) < 2 {
		return Point{}, false
	}
	return Point{Lon: c[0], Lat: c[1]}, true
}

// DistanceKm returns the great-circle distance between two points in kilometers.
func DistanceKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// PathLengthKm sums DistanceKm over consecutive points.
func PathLengthKm(pts []Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += DistanceKm(pts[i-1], pts[i])
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
