package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"geojson-gtfs/internal/db"
)

type Config struct {
	RulesFile string
	OutputDir string

	// DatabaseDriver is empty when no store is configured.
	DatabaseDriver string
	DatabaseURL    string

	// NATSURL is empty when publishing is disabled.
	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool

	MetricsAddr     string
	MetricsTextfile string

	Workers int

	LogFormat string
	Debug     bool
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		RulesFile: os.Getenv("RULES_FILE"),
		OutputDir: getenvDefault("OUTPUT_DIR", "out"),
	}

	// Postgres wins over SQLite: DATABASE_URL / PG_DSN, then PG* vars, then SQLITE_PATH.
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	switch {
	case dsn != "":
		cfg.DatabaseDriver = db.DriverPostgres
		cfg.DatabaseURL = dsn
	case os.Getenv("PGDATABASE") != "":
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		name := os.Getenv("PGDATABASE")
		sslmode := getenvDefault("PGSSLMODE", "disable")
		cfg.DatabaseDriver = db.DriverPostgres
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, name, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, name, sslmode)
		}
	case os.Getenv("SQLITE_PATH") != "":
		cfg.DatabaseDriver = db.DriverSQLite
		cfg.DatabaseURL = db.SQLiteDSN(os.Getenv("SQLITE_PATH"))
	}

	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "gtfs.feeds")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.MetricsTextfile = os.Getenv("METRICS_TEXTFILE")

	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid WORKERS: %q", v)
		}
		cfg.Workers = n
	} else {
		cfg.Workers = runtime.NumCPU()
	}

	cfg.LogFormat = strings.ToUpper(getenvDefault("LOG_FORMAT", "CONSOLE"))
	cfg.Debug = parseBool(os.Getenv("DEBUG"))

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
