package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DaysQuery returns the SQL that lists distinct publish days for n content
// types. It is also the shape the date index cache key is derived from.
func (s *Store) DaysQuery(n int) string {
	return fmt.Sprintf(`SELECT DISTINCT %s AS day
		FROM posts
		WHERE type IN (%s) AND status = '%s'
		ORDER BY day DESC`, s.dialect.dayExpr, placeholders(n), StatusPublish)
}

// DistinctDays returns the UTC midnight of every day on which at least one
// published item of the given types was created, newest first.
func (s *Store) DistinctDays(ctx context.Context, types []string) ([]time.Time, error) {
	rows, err := s.query(ctx, s.DaysQuery(len(types)), stringArgs(types)...)
	if err != nil {
		return nil, fmt.Errorf("DistinctDays: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("DistinctDays: %w", err)
		}
		t, err := time.ParseInLocation(time.DateOnly, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("DistinctDays: %w", err)
		}
		days = append(days, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DistinctDays: %w", err)
	}
	return days, nil
}

// span returns the half-open UTC range covered by year, month and an
// optional day. It reports false for components that name no real period.
func span(year, month, day int) (time.Time, time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 0 || day > 31 {
		return time.Time{}, time.Time{}, false
	}
	if day == 0 {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), true
	}
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if start.Day() != day {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 0, 1), true
}

// ExistsOn reports whether any published item of the given types was created
// in the year and month, or on the exact day when day is not zero.
func (s *Store) ExistsOn(ctx context.Context, types []string, year, month, day int) (bool, error) {
	start, end, ok := span(year, month, day)
	if !ok || len(types) == 0 {
		return false, nil
	}
	args := append(stringArgs(types), StatusPublish, formatTime(start), formatTime(end))
	var id int64
	err := s.queryRow(ctx, `SELECT id FROM posts
		WHERE type IN (`+placeholders(len(types))+`) AND status = ?
		AND published_at >= ? AND published_at < ?
		LIMIT 1`, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ExistsOn: %w", err)
	}
	return true, nil
}

// PostsOn returns up to limit published items of the given types created on
// the exact day, newest first.
func (s *Store) PostsOn(ctx context.Context, types []string, year, month, day, limit int) ([]Post, error) {
	start, end, ok := span(year, month, day)
	if !ok || day == 0 || len(types) == 0 {
		return nil, nil
	}
	args := append(stringArgs(types), StatusPublish, formatTime(start), formatTime(end), limit)
	rows, err := s.query(ctx, `SELECT id, type, status, slug, title, body, published_at FROM posts
		WHERE type IN (`+placeholders(len(types))+`) AND status = ?
		AND published_at >= ? AND published_at < ?
		ORDER BY published_at DESC, id DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("PostsOn: %w", err)
	}
	defer rows.Close()
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("PostsOn: %w", err)
	}
	return posts, nil
}

// PageBySlug returns the page with the given slug regardless of status,
// or ErrNotFound.
func (s *Store) PageBySlug(ctx context.Context, slug string) (*Post, error) {
	rows, err := s.query(ctx, `SELECT id, type, status, slug, title, body, published_at FROM posts
		WHERE type = ? AND slug = ?
		ORDER BY id
		LIMIT 1`, TypePage, slug)
	if err != nil {
		return nil, fmt.Errorf("PageBySlug: %w", err)
	}
	defer rows.Close()
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("PageBySlug: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return &posts[0], nil
}

// Post returns the item with the given id, or ErrNotFound.
func (s *Store) Post(ctx context.Context, id int64) (*Post, error) {
	rows, err := s.query(ctx, `SELECT id, type, status, slug, title, body, published_at FROM posts
		WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("Post: %w", err)
	}
	defer rows.Close()
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("Post: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return &posts[0], nil
}

// InsertPost stores p and fills in its ID. A zero PublishedAt means now.
func (s *Store) InsertPost(ctx context.Context, p *Post) error {
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC().Truncate(time.Second)
	}
	if p.Type == "" {
		p.Type = "post"
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	const insert = `INSERT INTO posts (type, status, slug, title, body, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	args := []any{p.Type, p.Status, p.Slug, p.Title, p.Body, formatTime(p.PublishedAt)}
	if s.dialect.numbered {
		err := s.queryRow(ctx, insert+" RETURNING id", args...).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("InsertPost: %w", err)
		}
		return nil
	}
	res, err := s.exec(ctx, insert, args...)
	if err != nil {
		return fmt.Errorf("InsertPost: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("InsertPost: %w", err)
	}
	return nil
}

// SetStatus changes the status of an item and returns the status it had before.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) (string, error) {
	p, err := s.Post(ctx, id)
	if err != nil {
		return "", fmt.Errorf("SetStatus: %w", err)
	}
	if _, err := s.exec(ctx, `UPDATE posts SET status = ? WHERE id = ?`, status, id); err != nil {
		return "", fmt.Errorf("SetStatus: %w", err)
	}
	return p.Status, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		var (
			p  Post
			at any
		)
		if err := rows.Scan(&p.ID, &p.Type, &p.Status, &p.Slug, &p.Title, &p.Body, &at); err != nil {
			return nil, err
		}
		t, err := scanTime(at)
		if err != nil {
			return nil, err
		}
		p.PublishedAt = t
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
