package generate

import (
	"context"
	"fmt"
	"io"

	"geojson-gtfs/internal/db"
	"geojson-gtfs/internal/feedwriter"
	"geojson-gtfs/internal/gtfs"
)

// FeedLoader reads stored feeds back.
type FeedLoader interface {
	LatestFeed(ctx context.Context, name string) (db.Feed, error)
	LoadBundle(ctx context.Context, feedID int64) (*gtfs.Bundle, error)
}

// ExportLatest writes the most recent stored feed called name as a GTFS zip.
func ExportLatest(ctx context.Context, store FeedLoader, name string, w io.Writer) (db.Feed, feedwriter.Written, error) {
	feed, err := store.LatestFeed(ctx, name)
	if err != nil {
		return db.Feed{}, nil, err
	}
	b, err := store.LoadBundle(ctx, feed.ID)
	if err != nil {
		return db.Feed{}, nil, fmt.Errorf("load feed %d: %w", feed.ID, err)
	}
	written, err := feedwriter.WriteZip(w, b)
	if err != nil {
		return db.Feed{}, nil, err
	}
	return feed, written, nil
}
