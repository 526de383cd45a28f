// Package transform turns a GeoJSON feature collection into a GTFS schedule bundle.
//
// Each feature's coordinates are walked once: points closer than a threshold to the
// previously kept point are dropped, kept points become stops and shape points, and
// every (feature, service window) pair gets one trip whose stop times are derived from
// segment distances and the feature's vehicle speed. How features, coordinates and
// windows become GTFS rows is decided by a caller supplied Mapper.
package transform
