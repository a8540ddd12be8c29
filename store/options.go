package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Options is the generic key-value option store. Each value lives in one row
// and is replaced with a single upsert.
type Options struct {
	s *Store
}

// Options returns the option store backed by s.
func (s *Store) Options() *Options {
	return &Options{s: s}
}

// Get returns the value stored under name, or ErrNotFound.
func (o *Options) Get(ctx context.Context, name string) ([]byte, error) {
	var value string
	err := o.s.queryRow(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Options.Get: %w", err)
	}
	return []byte(value), nil
}

// Set replaces the value stored under name.
func (o *Options) Set(ctx context.Context, name string, value []byte) error {
	_, err := o.s.exec(ctx, `INSERT INTO options (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`, name, string(value))
	if err != nil {
		return fmt.Errorf("Options.Set: %w", err)
	}
	return nil
}

// Delete removes name. Removing a missing option is not an error.
func (o *Options) Delete(ctx context.Context, name string) error {
	if _, err := o.s.exec(ctx, `DELETE FROM options WHERE name = ?`, name); err != nil {
		return fmt.Errorf("Options.Delete: %w", err)
	}
	return nil
}

// DefaultChunkSize is the largest slice of a value kept in one large_options row.
const DefaultChunkSize = 64 * 1024

// LargeOptions stores values of any size split across rows of the
// large_options table. A value is replaced inside one transaction, so readers
// see either the old or the new value in full.
type LargeOptions struct {
	s         *Store
	chunkSize int
}

// LargeOptions returns the large-value store backed by s.
func (s *Store) LargeOptions() *LargeOptions {
	return &LargeOptions{s: s, chunkSize: DefaultChunkSize}
}

// Get returns the value stored under name, or ErrNotFound.
func (o *LargeOptions) Get(ctx context.Context, name string) ([]byte, error) {
	rows, err := o.s.query(ctx, `SELECT data FROM large_options WHERE name = ? ORDER BY chunk`, name)
	if err != nil {
		return nil, fmt.Errorf("LargeOptions.Get: %w", err)
	}
	defer rows.Close()
	var (
		buf   bytes.Buffer
		found bool
	)
	for rows.Next() {
		var chunk []byte
		if err := rows.Scan(&chunk); err != nil {
			return nil, fmt.Errorf("LargeOptions.Get: %w", err)
		}
		buf.Write(chunk)
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LargeOptions.Get: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return buf.Bytes(), nil
}

// Set replaces the value stored under name. An empty value is stored as a
// single empty chunk so that it stays distinguishable from a missing one.
func (o *LargeOptions) Set(ctx context.Context, name string, value []byte) error {
	tx, err := o.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("LargeOptions.Set: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, o.s.dialect.rebind(`DELETE FROM large_options WHERE name = ?`), name); err != nil {
		return fmt.Errorf("LargeOptions.Set: %w", err)
	}
	insert := o.s.dialect.rebind(`INSERT INTO large_options (name, chunk, data) VALUES (?, ?, ?)`)
	chunk := 0
	for {
		n := len(value)
		if n > o.chunkSize {
			n = o.chunkSize
		}
		if _, err := tx.ExecContext(ctx, insert, name, chunk, value[:n]); err != nil {
			return fmt.Errorf("LargeOptions.Set: %w", err)
		}
		value = value[n:]
		chunk++
		if len(value) == 0 {
			break
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("LargeOptions.Set: %w", err)
	}
	return nil
}

// Delete removes name. Removing a missing value is not an error.
func (o *LargeOptions) Delete(ctx context.Context, name string) error {
	if _, err := o.s.exec(ctx, `DELETE FROM large_options WHERE name = ?`, name); err != nil {
		return fmt.Errorf("LargeOptions.Delete: %w", err)
	}
	return nil
}
