package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetTransient stores a short-lived operator message that expires after ttl.
func (s *Store) SetTransient(ctx context.Context, name, value string, ttl time.Duration) error {
	expires := time.Now().Add(ttl).Unix()
	_, err := s.exec(ctx, `INSERT INTO transients (name, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		name, value, expires)
	if err != nil {
		return fmt.Errorf("SetTransient: %w", err)
	}
	return nil
}

// Transient returns the value of an unexpired transient. Expired entries are
// removed and reported as ErrNotFound.
func (s *Store) Transient(ctx context.Context, name string) (string, error) {
	var (
		value   string
		expires int64
	)
	err := s.queryRow(ctx, `SELECT value, expires_at FROM transients WHERE name = ?`, name).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("Transient: %w", err)
	}
	if time.Now().Unix() >= expires {
		if err := s.DeleteTransient(ctx, name); err != nil {
			return "", err
		}
		return "", ErrNotFound
	}
	return value, nil
}

// DeleteTransient removes a transient.
func (s *Store) DeleteTransient(ctx context.Context, name string) error {
	if _, err := s.exec(ctx, `DELETE FROM transients WHERE name = ?`, name); err != nil {
		return fmt.Errorf("DeleteTransient: %w", err)
	}
	return nil
}
