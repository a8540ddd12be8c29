/*
Package store is the relational content store behind the sitemap.

It holds the posts whose publish dates are aggregated, the key-value options
the date index is cached in, transient operator notices, and the table of
scheduled tasks. SQLite (github.com/mattn/go-sqlite3) and PostgreSQL
(github.com/lib/pq) are supported; queries are written once with "?"
placeholders and rebound for the active driver.
*/
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// timeLayout is the storage format of published_at on SQLite, which
// compares lexically.
const timeLayout = "2006-01-02 15:04:05"

// dialect captures the few places where SQLite and PostgreSQL disagree.
type dialect struct {
	name     string
	serial   string // auto-increment primary key column
	datetime string // column type of published_at
	blob     string // binary column type
	dayExpr  string // expression turning published_at into YYYY-MM-DD
	numbered bool   // $1 style placeholders
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:     DriverSQLite,
		serial:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		datetime: "TEXT",
		blob:     "BLOB",
		dayExpr:  "substr(published_at, 1, 10)",
	},
	DriverPostgres: {
		name:     DriverPostgres,
		serial:   "BIGSERIAL PRIMARY KEY",
		datetime: "TIMESTAMP",
		blob:     "BYTEA",
		dayExpr:  "to_char(published_at, 'YYYY-MM-DD')",
		numbered: true,
	},
}

// rebind rewrites ? placeholders to $n for drivers that need it.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store implements the content, option, transient and task queries.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the database, applies pending migrations and returns a Store.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := NewMigrationRunner(db, driver).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	s, err := New(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened and migrated database.
func New(db *sql.DB, driver string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("store.New: unsupported driver %q", driver)
	}
	return &Store{db: db, dialect: d}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// formatTime renders t the way published_at is stored.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// scanTime accepts the representations drivers hand back for published_at.
func scanTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	}
	return time.Time{}, fmt.Errorf("cannot scan %T as time", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
