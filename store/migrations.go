package store

import (
	"database/sql"
	"fmt"
)

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx, d dialect) error
}

// MigrationRunner applies pending migrations to the database.
type MigrationRunner struct {
	db         *sql.DB
	dialect    dialect
	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered migrations.
func NewMigrationRunner(db *sql.DB, driver string) *MigrationRunner {
	d, ok := dialects[driver]
	if !ok {
		d = dialects[DriverSQLite]
	}
	return &MigrationRunner{
		db:      db,
		dialect: d,
		migrations: []migration{
			{Version: 1, Name: "initial_schema", Apply: migrateV001},
			{Version: 2, Name: "large_options", Apply: migrateV002},
		},
	}
}

// Run creates the schema_migrations tracking table, then applies each
// migration that hasn't been recorded yet.
func (r *MigrationRunner) Run() error {
	if r.dialect.name == DriverSQLite {
		if _, err := r.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// isApplied checks whether a migration version has already been recorded.
func (r *MigrationRunner) isApplied(version int) (bool, error) {
	var count int
	err := r.db.QueryRow(
		r.dialect.rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), version,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// apply executes a migration inside a transaction and records it.
func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx, r.dialect); err != nil {
		return err
	}
	if _, err := tx.Exec(
		r.dialect.rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// migrateV001 creates posts, options, transients and tasks.
func migrateV001(tx *sql.Tx, d dialect) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id           ` + d.serial + `,
			type         TEXT NOT NULL DEFAULT 'post',
			status       TEXT NOT NULL DEFAULT 'draft',
			slug         TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			body         TEXT NOT NULL DEFAULT '',
			published_at ` + d.datetime + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS options (
			name  TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transients (
			name       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id         ` + d.serial + `,
			name       TEXT NOT NULL,
			run_at     BIGINT NOT NULL,
			recurrence TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_type_status_date ON posts(type, status, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_slug ON posts(type, slug)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_run_at ON tasks(run_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_name ON tasks(name)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// migrateV002 adds the chunked store for values too large for one option row.
func migrateV002(tx *sql.Tx, d dialect) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS large_options (
		name  TEXT NOT NULL,
		chunk INTEGER NOT NULL,
		data  ` + d.blob + ` NOT NULL,
		PRIMARY KEY (name, chunk)
	)`)
	if err != nil {
		return fmt.Errorf("create large_options: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
