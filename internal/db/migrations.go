package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Migrate creates the feed tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteMigrations
	if s.driver == DriverPostgres {
		stmts = postgresMigrations
	}
	for i, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	log.Debug().Str("driver", s.driver).Msg("database migrations applied")
	return nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS generated_feeds (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		features       INTEGER NOT NULL DEFAULT 0,
		retained_stops INTEGER NOT NULL DEFAULT 0,
		skipped_points INTEGER NOT NULL DEFAULT 0,
		trips          INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_generated_feeds_name ON generated_feeds(name, id)`,
	`CREATE TABLE IF NOT EXISTS feed_records (
		feed_id INTEGER NOT NULL REFERENCES generated_feeds(id) ON DELETE CASCADE,
		kind    TEXT NOT NULL,
		seq     INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (feed_id, kind, seq)
	)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS generated_feeds (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		features       INTEGER NOT NULL DEFAULT 0,
		retained_stops INTEGER NOT NULL DEFAULT 0,
		skipped_points INTEGER NOT NULL DEFAULT 0,
		trips          INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_generated_feeds_name ON generated_feeds(name, id)`,
	`CREATE TABLE IF NOT EXISTS feed_records (
		feed_id BIGINT NOT NULL REFERENCES generated_feeds(id) ON DELETE CASCADE,
		kind    TEXT NOT NULL,
		seq     INTEGER NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (feed_id, kind, seq)
	)`,
}
