package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geojson-gtfs/internal/db"
)

var envKeys = []string{
	"RULES_FILE", "OUTPUT_DIR", "DATABASE_URL", "PG_DSN", "PGHOST", "PGPORT", "PGUSER",
	"PGPASSWORD", "PGDATABASE", "PGSSLMODE", "SQLITE_PATH", "NATS_URL", "NATS_SUBJECT_PREFIX",
	"LOG_NATS_SUBJECTS", "METRICS_ADDR", "METRICS_TEXTFILE", "WORKERS", "LOG_FORMAT", "DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Empty(t, cfg.DatabaseDriver)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "gtfs.feeds", cfg.NATSSubjectPrefix)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "CONSOLE", cfg.LogFormat)
	assert.False(t, cfg.Debug)
}

func TestLoad_Database(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantDriver string
		wantURL    string
	}{
		{
			name:       "database url",
			env:        map[string]string{"DATABASE_URL": "postgres://db/feeds", "SQLITE_PATH": "x.db"},
			wantDriver: db.DriverPostgres,
			wantURL:    "postgres://db/feeds",
		},
		{
			name:       "pg vars",
			env:        map[string]string{"PGDATABASE": "feeds", "PGUSER": "gtfs", "PGPASSWORD": "p@ss", "PGHOST": "db"},
			wantDriver: db.DriverPostgres,
			wantURL:    "postgres://gtfs:p%40ss@db:5432/feeds?sslmode=disable",
		},
		{
			name:       "sqlite",
			env:        map[string]string{"SQLITE_PATH": "/tmp/feeds.db"},
			wantDriver: db.DriverSQLite,
			wantURL:    db.SQLiteDSN("/tmp/feeds.db"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, cfg.DatabaseDriver)
			assert.Equal(t, tt.wantURL, cfg.DatabaseURL)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKERS", "3")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DEBUG", "yes")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("LOG_NATS_SUBJECTS", "on")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "JSON", cfg.LogFormat)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.LogNATSSubjects)
	assert.Equal(t, "nats://nats:4222", cfg.NATSURL)
}

func TestLoad_InvalidWorkers(t *testing.T) {
	for _, v := range []string{"0", "-2", "many"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("WORKERS", v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
