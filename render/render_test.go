package render_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xwp/sitemap-html/date"
	"github.com/xwp/sitemap-html/index"
	"github.com/xwp/sitemap-html/internal/testutil"
	"github.com/xwp/sitemap-html/render"
	"github.com/xwp/sitemap-html/route"
	"github.com/xwp/sitemap-html/store"
)

var urls = route.URLs{Base: "/sitemap/"}

func month(y, m int) route.Resolution {
	return route.Resolution{Kind: route.Month, Fragment: route.Fragment{Year: y, Month: m}, Timestamp: date.Make(y, m, 0)}
}

func day(y, m, d int) route.Resolution {
	return route.Resolution{Kind: route.Day, Fragment: route.Fragment{Year: y, Month: m, Day: d}, Timestamp: date.Make(y, m, d)}
}

var root = route.Resolution{Kind: route.Root, Timestamp: date.Invalid}

func setup(t *testing.T) (*store.Store, *index.Index, *render.Renderer) {
	t.Helper()
	s := testutil.Store(t)
	testutil.Publish(t, s, "post", "March", testutil.Day(2024, 3, 2, 9))
	testutil.Publish(t, s, "post", "Early", testutil.Day(2024, 2, 10, 8))
	testutil.Publish(t, s, "post", "Late", testutil.Day(2024, 2, 10, 20))
	testutil.Publish(t, s, "post", "February first", testutil.Day(2024, 2, 1, 9))
	testutil.Publish(t, s, "post", "Last year", testutil.Day(2023, 7, 4, 9))

	ix := index.New(s, s.Options(), []string{"post"})
	_, err := ix.Rebuild(context.Background())
	require.NoError(t, err)

	r, err := render.New(ix, s, ix.Types(), urls, render.DefaultPermalink)
	require.NoError(t, err)
	return s, ix, r
}

func TestBuild_Root(t *testing.T) {
	_, _, r := setup(t)

	page, err := r.Build(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, page.Breadcrumbs)
	assert.Equal(t, []render.Section{
		{
			Label:   "2024",
			Classes: []string{render.ClassYear},
			Items: []render.Item{
				{Label: "February", Link: "/sitemap/202402/"},
				{Label: "March", Link: "/sitemap/202403/"},
			},
		},
		{
			Label:   "2023",
			Classes: []string{render.ClassYear},
			Items:   []render.Item{{Label: "July", Link: "/sitemap/202307/"}},
		},
	}, page.Sections)
}

func TestBuild_Month(t *testing.T) {
	_, _, r := setup(t)

	page, err := r.Build(context.Background(), month(2024, 2))
	require.NoError(t, err)
	assert.Equal(t, []render.Section{{
		Label:   "February 2024",
		Classes: []string{render.ClassMonth},
		Items: []render.Item{
			{Label: "February 10", Link: "/sitemap/20240210/"},
			{Label: "February 1", Link: "/sitemap/20240201/"},
		},
	}}, page.Sections)
	assert.Equal(t, []render.Breadcrumb{{Label: "Index", Link: "/sitemap/", Position: 1}}, page.Breadcrumbs)
}

func TestBuild_Day(t *testing.T) {
	_, _, r := setup(t)

	page, err := r.Build(context.Background(), day(2024, 2, 10))
	require.NoError(t, err)
	require.Len(t, page.Sections, 1)
	assert.Equal(t, "February 10, 2024", page.Sections[0].Label)
	assert.Equal(t, []string{render.ClassDay}, page.Sections[0].Classes)
	assert.Equal(t, []render.Item{
		{Label: "Late", Link: "/2024/02/10/late/"},
		{Label: "Early", Link: "/2024/02/10/early/"},
	}, page.Sections[0].Items)
	assert.Equal(t, []render.Breadcrumb{
		{Label: "Index", Link: "/sitemap/", Position: 1},
		{Label: "February 2024", Link: "/sitemap/202402/", Position: 2},
	}, page.Breadcrumbs)
}

func TestBuild_DayLimit(t *testing.T) {
	s := testutil.Store(t)
	for i := 0; i < render.DayLimit+5; i++ {
		testutil.Publish(t, s, "post", fmt.Sprintf("Post %d", i), testutil.Day(2024, 5, 1, 0).Add(time.Duration(i)*time.Minute))
	}
	ix := index.New(s, s.Options(), nil)
	r, err := render.New(ix, s, ix.Types(), urls, "")
	require.NoError(t, err)

	page, err := r.Build(context.Background(), day(2024, 5, 1))
	require.NoError(t, err)
	assert.Len(t, page.Sections[0].Items, render.DayLimit)
}

func TestBuild_NotFoundAndStaleIndex(t *testing.T) {
	_, _, r := setup(t)
	ctx := context.Background()

	page, err := r.Build(ctx, route.Resolution{Kind: route.NotFound, Fragment: route.Fragment{Year: 2024, Month: 4}, Timestamp: date.Make(2024, 4, 0)})
	require.NoError(t, err)
	assert.True(t, page.Empty())

	// A month the index has not seen yet renders as empty, not as an error.
	page, err = r.Build(ctx, month(2024, 6))
	require.NoError(t, err)
	assert.True(t, page.Empty())

	html, err := r.Markup(ctx, month(2024, 6))
	require.NoError(t, err)
	assert.Equal(t, "<p>No posts found.</p>", string(html))
}

func TestBuild_EmptyIndex(t *testing.T) {
	s := testutil.Store(t)
	ix := index.New(s, s.Options(), nil)
	r, err := render.New(ix, s, ix.Types(), urls, "")
	require.NoError(t, err)

	html, err := r.Markup(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "<p>No posts found.</p>", string(html))
}

func TestMarkup(t *testing.T) {
	s, _, r := setup(t)
	ctx := context.Background()
	testutil.Publish(t, s, "post", `<script>alert("x")</script>`, testutil.Day(2024, 2, 10, 12))

	html, err := r.Markup(ctx, root)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<div id="sitemap-html">`)
	assert.Contains(t, string(html), `<div class="sitemap-html__year">`)
	assert.Contains(t, string(html), `<a href="/sitemap/202402/">February</a>`)
	assert.NotContains(t, string(html), "sitemap-html-breadcrumbs")

	html, err = r.Markup(ctx, day(2024, 2, 10))
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, `<nav id="sitemap-html-breadcrumbs" aria-label="Breadcrumb">`)
	assert.Contains(t, out, `<meta itemprop="position" content="2">`)
	assert.Contains(t, out, `<h2>February 10, 2024</h2>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Less(t, strings.Index(out, "Late"), strings.Index(out, "Early"))
}

func TestLoadTemplates_Override(t *testing.T) {
	_, _, r := setup(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitemap.html"),
		[]byte(`{{define "sitemap"}}{{len .Sections}} sections{{end}}`), 0o644))

	require.NoError(t, r.LoadTemplates(dir))
	html, err := r.Markup(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, "2 sections", string(html))
	assert.Contains(t, r.DefinedTemplates(), `"layout"`)

	require.NoError(t, r.LoadTemplates(filepath.Join(dir, "missing")))
	html, err = r.Markup(ctx, root)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<div id="sitemap-html">`)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.html"), []byte(`{{define "x"}}`), 0o644))
	assert.Error(t, r.LoadTemplates(dir))
	html, err = r.Markup(ctx, root)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<div id="sitemap-html">`, "a failed load keeps the previous templates")
}

func TestExecuteLayout(t *testing.T) {
	_, _, r := setup(t)
	var sb strings.Builder
	err := r.Execute(&sb, "layout", render.Document{
		Title:      "Sitemap: February 2024",
		Heading:    "Sitemap",
		Canonical:  "/sitemap/202402/",
		Stylesheet: "/static/sitemap-html.css",
		Body:       "<p>Intro</p>",
		Sitemap:    "<div id=\"sitemap-html\"></div>",
	})
	require.NoError(t, err)
	out := sb.String()
	assert.Contains(t, out, "<title>Sitemap: February 2024</title>")
	assert.Contains(t, out, `<link rel="canonical" href="/sitemap/202402/">`)
	assert.Contains(t, out, `<link rel="stylesheet" href="/static/sitemap-html.css">`)
	assert.Less(t, strings.Index(out, "<p>Intro</p>"), strings.Index(out, `<div id="sitemap-html">`))
}

func TestPermalink(t *testing.T) {
	p := store.Post{ID: 42, Type: "post", Slug: "hello-world", PublishedAt: time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)}

	assert.Equal(t, "/2024/03/05/hello-world/", render.DefaultPermalink.Expand(p))
	assert.Equal(t, "/post/42", render.Permalink("/%post_type%/%post_id%").Expand(p))
	assert.Equal(t, "/sitemap/", render.DefaultPermalink.Expand(store.Post{Type: store.TypePage, Slug: "sitemap"}))
}

func TestWatch_ReloadsTemplates(t *testing.T) {
	_, _, r := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	require.NoError(t, r.Watch(ctx, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitemap.html"),
		[]byte(`{{define "sitemap"}}watched{{end}}`), 0o644))

	assert.Eventually(t, func() bool {
		html, err := r.Markup(context.Background(), root)
		return err == nil && string(html) == "watched"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_MissingDir(t *testing.T) {
	_, _, r := setup(t)
	assert.Error(t, r.Watch(context.Background(), filepath.Join(t.TempDir(), "missing")))
}
