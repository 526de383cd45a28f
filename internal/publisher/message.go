package publisher

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/twpayne/go-polyline"

	"geojson-gtfs/internal/gtfs"
)

// FeedMessage announces a generated feed.
type FeedMessage struct {
	Feed        string         `json:"feed"`
	FeedID      int64          `json:"feedId,omitempty"`
	Output      string         `json:"output,omitempty"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Records     map[string]int `json:"records"`
	Stats       gtfs.Stats     `json:"stats"`
	Shapes      []ShapePreview `json:"shapes,omitempty"`
}

// ShapePreview is a shape encoded as a Google polyline of lat,lon pairs.
type ShapePreview struct {
	ShapeID  string `json:"shapeId"`
	Points   int    `json:"points"`
	Polyline string `json:"polyline"`
}

// NewFeedMessage summarizes b for publishing.
func NewFeedMessage(feed string, feedID int64, output string, b *gtfs.Bundle) FeedMessage {
	msg := FeedMessage{
		Feed:        feed,
		FeedID:      feedID,
		Output:      output,
		GeneratedAt: time.Now().UTC(),
		Records:     map[string]int{},
		Stats:       b.Stats,
		Shapes:      ShapePreviews(b.Shapes),
	}
	for _, f := range b.Files() {
		msg.Records[f.Name] = len(f.Records)
	}
	return msg
}

type shapePt struct {
	seq      float64
	order    int
	lat, lon float64
}

// ShapePreviews groups shape rows by shape_id, orders each group by
// shape_pt_sequence and encodes it. Rows without usable coordinates are skipped.
func ShapePreviews(shapes []gtfs.Record) []ShapePreview {
	groups := map[string][]shapePt{}
	var ids []string
	for i, rec := range shapes {
		lat, okLat := number(rec["shape_pt_lat"])
		lon, okLon := number(rec["shape_pt_lon"])
		if !okLat || !okLon {
			continue
		}
		id := fmt.Sprint(rec["shape_id"])
		if _, ok := groups[id]; !ok {
			ids = append(ids, id)
		}
		seq, _ := number(rec["shape_pt_sequence"])
		groups[id] = append(groups[id], shapePt{seq: seq, order: i, lat: lat, lon: lon})
	}

	previews := make([]ShapePreview, 0, len(ids))
	for _, id := range ids {
		pts := groups[id]
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].seq < pts[b].seq })
		coords := make([][]float64, len(pts))
		for i, p := range pts {
			coords[i] = []float64{p.lat, p.lon}
		}
		previews = append(previews, ShapePreview{
			ShapeID:  id,
			Points:   len(pts),
			Polyline: string(polyline.EncodeCoords(coords)),
		})
	}
	return previews
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
