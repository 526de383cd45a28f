package db

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// WithDBName returns dsn pointing at another database. Postgres DSNs
// (postgres:// or postgresql://, scheme optional) get their path replaced.
// SQLite file DSNs keep their directory and query and get database as file name,
// with ".db" appended when it has no extension.
func WithDBName(driver, dsn, database string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	database = strings.TrimSpace(database)
	if database == "" {
		return "", fmt.Errorf("empty database name")
	}
	if driver == DriverSQLite {
		return sqliteWithName(dsn, database), nil
	}

	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported DSN scheme %q", u.Scheme)
	}
	if !strings.HasPrefix(database, "/") {
		u.Path = "/" + database
	} else {
		u.Path = database
	}
	return u.String(), nil
}

func sqliteWithName(dsn, database string) string {
	if filepath.Ext(database) == "" {
		database += ".db"
	}
	prefix := ""
	rest := dsn
	if strings.HasPrefix(rest, "file:") {
		prefix = "file:"
		rest = strings.TrimPrefix(rest, "file:")
	}
	query := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		query = rest[i:]
		rest = rest[:i]
	}
	return prefix + filepath.Join(filepath.Dir(rest), database) + query
}
