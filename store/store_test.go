package store_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xwp/sitemap-html/internal/testutil"
	"github.com/xwp/sitemap-html/store"
)

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.New(nil, "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestMigrations_AreIdempotent(t *testing.T) {
	s := testutil.Store(t)
	runner := store.NewMigrationRunner(s.DB(), store.DriverSQLite)
	require.NoError(t, runner.Run())
	require.NoError(t, runner.Run())

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

// --- Posts ---

func TestDistinctDays_NewestFirstAndDeduplicated(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()

	testutil.Publish(t, s, "post", "Morning", testutil.Day(2023, 1, 20, 8))
	testutil.Publish(t, s, "post", "Evening", testutil.Day(2023, 1, 20, 22))
	testutil.Publish(t, s, "post", "Older", testutil.Day(2023, 1, 5, 12))
	testutil.Publish(t, s, "post", "New Year's Eve", testutil.Day(2022, 12, 31, 23))
	testutil.Draft(t, s, "post", "Unpublished", testutil.Day(2023, 2, 1, 9))
	testutil.Publish(t, s, "event", "Other type", testutil.Day(2023, 3, 1, 9))

	days, err := s.DistinctDays(ctx, []string{"post"})
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, testutil.Day(2023, 1, 20, 0), days[0])
	assert.Equal(t, testutil.Day(2023, 1, 5, 0), days[1])
	assert.Equal(t, testutil.Day(2022, 12, 31, 0), days[2])

	days, err = s.DistinctDays(ctx, []string{"post", "event"})
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, testutil.Day(2023, 3, 1, 0), days[0])
}

func TestDaysQuery_DependsOnTypeCount(t *testing.T) {
	s := testutil.Store(t)
	assert.NotEqual(t, s.DaysQuery(1), s.DaysQuery(2))
	assert.Contains(t, s.DaysQuery(2), "IN (?, ?)")
}

func TestExistsOn(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()
	testutil.Publish(t, s, "post", "Ides", testutil.Day(2024, 3, 15, 10))
	testutil.Draft(t, s, "post", "Draft", testutil.Day(2024, 4, 2, 10))
	testutil.Publish(t, s, "post", "Spring", testutil.Day(2024, 3, 2, 10))

	tests := []struct {
		name             string
		year, month, day int
		want             bool
	}{
		{"month with posts", 2024, 3, 0, true},
		{"exact day", 2024, 3, 15, true},
		{"other day", 2024, 3, 16, false},
		{"draft only", 2024, 4, 0, false},
		{"month out of range", 2024, 13, 0, false},
		{"month zero", 2024, 0, 0, false},
		{"day out of range", 2024, 3, 32, false},
		{"past end of month", 2024, 2, 31, false},
		{"first day after", 2024, 3, 2, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ExistsOn(ctx, []string{"post"}, tc.year, tc.month, tc.day)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExistsOn_DayBoundaries(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()
	testutil.Publish(t, s, "post", "Last second", time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC))

	got, err := s.ExistsOn(ctx, []string{"post"}, 2024, 3, 15)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.ExistsOn(ctx, []string{"post"}, 2024, 3, 16)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestPostsOn_OrderAndLimit(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()
	testutil.Publish(t, s, "post", "First", testutil.Day(2024, 3, 15, 8))
	testutil.Publish(t, s, "post", "Second", testutil.Day(2024, 3, 15, 12))
	testutil.Publish(t, s, "page", "A page", testutil.Day(2024, 3, 15, 13))
	testutil.Publish(t, s, "post", "Next day", testutil.Day(2024, 3, 16, 1))

	posts, err := s.PostsOn(ctx, []string{"post"}, 2024, 3, 15, 100)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Second", posts[0].Title)
	assert.Equal(t, "First", posts[1].Title)
	assert.Equal(t, testutil.Day(2024, 3, 15, 12), posts[0].PublishedAt)

	posts, err = s.PostsOn(ctx, []string{"post"}, 2024, 3, 15, 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = s.PostsOn(ctx, []string{"post"}, 2024, 3, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPageBySlug(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()

	_, err := s.PageBySlug(ctx, "sitemap")
	assert.ErrorIs(t, err, store.ErrNotFound)

	testutil.Publish(t, s, "post", "Sitemap", testutil.Day(2024, 1, 1, 0))
	_, err = s.PageBySlug(ctx, "sitemap")
	assert.ErrorIs(t, err, store.ErrNotFound, "only pages count")

	page := testutil.SitemapPage(t, s, "sitemap", "Hello")
	got, err := s.PageBySlug(ctx, "sitemap")
	require.NoError(t, err)
	assert.Equal(t, page.ID, got.ID)
	assert.Equal(t, "Hello", got.Body)
}

func TestSetStatus_ReturnsPrevious(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()
	p := testutil.Draft(t, s, "post", "Soon", testutil.Day(2024, 5, 1, 9))

	old, err := s.SetStatus(ctx, p.ID, store.StatusPublish)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDraft, old)

	got, err := s.Post(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPublish, got.Status)

	_, err = s.SetStatus(ctx, 9999, store.StatusPublish)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertPost_Defaults(t *testing.T) {
	s := testutil.Store(t)
	p := store.Post{Title: "Defaults"}
	require.NoError(t, s.InsertPost(context.Background(), &p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "post", p.Type)
	assert.Equal(t, store.StatusDraft, p.Status)
	assert.False(t, p.PublishedAt.IsZero())
}

// --- Options ---

func TestOptions_NotFoundIsDistinctFromEmpty(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()

	for name, backend := range map[string]interface {
		Get(context.Context, string) ([]byte, error)
		Set(context.Context, string, []byte) error
	}{
		"options": s.Options(),
		"large":   s.LargeOptions(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Get(ctx, "missing")
			assert.ErrorIs(t, err, store.ErrNotFound)

			require.NoError(t, backend.Set(ctx, "empty", []byte{}))
			got, err := backend.Get(ctx, "empty")
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, backend.Set(ctx, "k", []byte("[1,2,3]")))
			require.NoError(t, backend.Set(ctx, "k", []byte("[4]")))
			got, err = backend.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "[4]", string(got))
		})
	}
}

func TestLargeOptions_SpansChunks(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()
	lo := s.LargeOptions()

	value := bytes.Repeat([]byte("0123456789"), store.DefaultChunkSize/4)
	require.NoError(t, lo.Set(ctx, "big", value))

	var chunks int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM large_options WHERE name = 'big'").Scan(&chunks))
	assert.Equal(t, 3, chunks)

	got, err := lo.Get(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	require.NoError(t, lo.Set(ctx, "big", []byte("small")))
	got, err = lo.Get(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, "small", string(got))

	require.NoError(t, lo.Delete(ctx, "big"))
	_, err = lo.Get(ctx, "big")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Transients ---

func TestTransients(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()

	require.NoError(t, s.SetTransient(ctx, "notice", "created", time.Minute))
	got, err := s.Transient(ctx, "notice")
	require.NoError(t, err)
	assert.Equal(t, "created", got)

	require.NoError(t, s.DeleteTransient(ctx, "notice"))
	_, err = s.Transient(ctx, "notice")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetTransient(ctx, "stale", "old", -time.Second))
	_, err = s.Transient(ctx, "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Tasks ---

func TestTasks(t *testing.T) {
	s := testutil.Store(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	daily := store.Task{Name: "daily", RunAt: base.Add(time.Hour), Recurrence: store.RecurDaily}
	once := store.Task{Name: "once", RunAt: base.Add(-time.Minute)}
	require.NoError(t, s.AddTask(ctx, &daily))
	require.NoError(t, s.AddTask(ctx, &once))
	assert.NotZero(t, daily.ID)

	due, err := s.DueTasks(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "once", due[0].Name)
	assert.False(t, due[0].Recurring())

	require.NoError(t, s.RescheduleTask(ctx, daily.ID, base.Add(-time.Hour)))
	due, err = s.DueTasks(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "daily", due[0].Name)
	assert.Equal(t, 24*time.Hour, due[0].Interval())

	named, err := s.TasksNamed(ctx, "daily")
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, base.Add(-time.Hour), named[0].RunAt)

	n, err := s.DeleteTasksNamed(ctx, "daily")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.DeleteTask(ctx, once.ID))
	all, err := s.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
