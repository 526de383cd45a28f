package transform

import (
	"fmt"
	"reflect"

	"geojson-gtfs/internal/gtfs"
)

// Dedup keeps the first record for each value of field, preserving order.
// Records without the field are kept as they are.
func Dedup(records []gtfs.Record, field string) []gtfs.Record {
	seen := make(map[any]struct{}, len(records))
	out := make([]gtfs.Record, 0, len(records))
	for _, r := range records {
		v, ok := r[field]
		if !ok {
			out = append(out, r)
			continue
		}
		k := identityKey(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// identityKey makes v usable as a map key. Arrays and structs holding slices or
// maps are not hashable even though their type is comparable.
func identityKey(v any) any {
	if v == nil || reflect.ValueOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%#v", v, v)
}
