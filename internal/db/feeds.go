package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"geojson-gtfs/internal/gtfs"
)

// ErrFeedNotFound is returned when no stored feed matches a lookup.
var ErrFeedNotFound = errors.New("feed not found")

// Feed is a stored generation run.
type Feed struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Stats     gtfs.Stats
}

// SaveBundle stores b under name in a single transaction and returns the new feed.
func (s *Store) SaveBundle(ctx context.Context, name string, b *gtfs.Bundle) (Feed, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Feed{}, fmt.Errorf("feed name is required")
	}
	feed := Feed{Name: name, CreatedAt: time.Now().UTC(), Stats: b.Stats}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Feed{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, s.rebind(`
INSERT INTO generated_feeds (name, created_at, features, retained_stops, skipped_points, trips)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`),
		feed.Name, feed.CreatedAt.Format(time.RFC3339Nano),
		b.Stats.Features, b.Stats.RetainedStops, b.Stats.SkippedPoints, b.Stats.Trips,
	).Scan(&feed.ID)
	if err != nil {
		return Feed{}, fmt.Errorf("insert feed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO feed_records (feed_id, kind, seq, payload) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return Feed{}, fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()

	for _, f := range b.Files() {
		for seq, rec := range f.Records {
			payload, err := json.Marshal(rec)
			if err != nil {
				return Feed{}, fmt.Errorf("encode %s record %d: %w", f.Kind, seq, err)
			}
			if _, err := stmt.ExecContext(ctx, feed.ID, f.Kind, seq, string(payload)); err != nil {
				return Feed{}, fmt.Errorf("insert %s record %d: %w", f.Kind, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Feed{}, fmt.Errorf("commit: %w", err)
	}
	return feed, nil
}

// LatestFeed returns the most recently stored feed with the given name.
func (s *Store) LatestFeed(ctx context.Context, name string) (Feed, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Feed{}, fmt.Errorf("feed name is required")
	}
	q := s.rebind(`
SELECT id, name, created_at, features, retained_stops, skipped_points, trips
FROM generated_feeds
WHERE name = ?
ORDER BY id DESC
LIMIT 1`)

	var (
		feed    Feed
		created string
	)
	err := s.db.QueryRowContext(ctx, q, name).Scan(
		&feed.ID, &feed.Name, &created,
		&feed.Stats.Features, &feed.Stats.RetainedStops, &feed.Stats.SkippedPoints, &feed.Stats.Trips,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Feed{}, fmt.Errorf("%w: no feed named %q", ErrFeedNotFound, name)
	}
	if err != nil {
		return Feed{}, err
	}
	feed.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Feed{}, fmt.Errorf("feed %d created_at: %w", feed.ID, err)
	}
	return feed, nil
}

// LoadBundle reads every record of a stored feed back into a bundle. Numbers are
// returned as json.Number so integer columns keep their formatting.
func (s *Store) LoadBundle(ctx context.Context, feedID int64) (*gtfs.Bundle, error) {
	var stats gtfs.Stats
	err := s.db.QueryRowContext(ctx, s.rebind(`
SELECT features, retained_stops, skipped_points, trips FROM generated_feeds WHERE id = ?`), feedID).
		Scan(&stats.Features, &stats.RetainedStops, &stats.SkippedPoints, &stats.Trips)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrFeedNotFound, feedID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT kind, payload FROM feed_records WHERE feed_id = ? ORDER BY kind, seq`), feedID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	byKind := map[string][]gtfs.Record{}
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s record: %w", kind, err)
		}
		byKind[kind] = append(byKind[kind], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	b := &gtfs.Bundle{Stats: stats}
	for kind, recs := range byKind {
		if !b.Set(kind, recs) {
			return nil, fmt.Errorf("unknown record kind %q", kind)
		}
	}
	return b, nil
}

func decodeRecord(payload string) (gtfs.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var rec gtfs.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
