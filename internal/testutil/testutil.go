// Package testutil provides a migrated in-memory content store and post
// fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xwp/sitemap-html/store"
)

// Store opens a migrated in-memory SQLite store that is closed when the test ends.
func Store(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Day returns the UTC time of the given date at hour:00.
func Day(year, month, day, hour int) time.Time {
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
}

// Publish inserts a published item of the given type and returns it.
func Publish(t *testing.T, s *store.Store, typ, title string, at time.Time) store.Post {
	t.Helper()
	p := store.Post{
		Type:        typ,
		Status:      store.StatusPublish,
		Slug:        slugify(title),
		Title:       title,
		PublishedAt: at,
	}
	require.NoError(t, s.InsertPost(context.Background(), &p))
	return p
}

// Draft inserts an unpublished item of the given type and returns it.
func Draft(t *testing.T, s *store.Store, typ, title string, at time.Time) store.Post {
	t.Helper()
	p := store.Post{
		Type:        typ,
		Status:      store.StatusDraft,
		Slug:        slugify(title),
		Title:       title,
		PublishedAt: at,
	}
	require.NoError(t, s.InsertPost(context.Background(), &p))
	return p
}

// SitemapPage inserts the published page the sitemap routes hang off.
func SitemapPage(t *testing.T, s *store.Store, slug, body string) store.Post {
	t.Helper()
	p := store.Post{
		Type:        store.TypePage,
		Status:      store.StatusPublish,
		Slug:        slug,
		Title:       "Sitemap",
		Body:        body,
		PublishedAt: Day(2020, 1, 1, 0),
	}
	require.NoError(t, s.InsertPost(context.Background(), &p))
	return p
}

func slugify(title string) string {
	b := make([]byte, 0, len(title))
	for i := 0; i < len(title); i++ {
		c := title[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b = append(b, c)
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
		case len(b) > 0 && b[len(b)-1] != '-':
			b = append(b, '-')
		}
	}
	for len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	return string(b)
}
