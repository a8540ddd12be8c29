package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSharedMaxAge(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"absent", "", "max-age=300, stale-while-revalidate, s-maxage=2592000"},
		{"append", "max-age=60", "max-age=60, s-maxage=2592000"},
		{"replace", "public, s-maxage=10, max-age=60", "public, s-maxage=2592000, max-age=60"},
		{"replace leading", "s-maxage=10", "s-maxage=2592000"},
		{"bare directive", "no-transform", "no-transform, s-maxage=2592000"},
		{"duplicates", "public, s-maxage=10, max-age=60, s-maxage=20", "public, s-maxage=2592000, max-age=60"},
		{"duplicates without spaces", "s-maxage=1,s-maxage=2,public", "s-maxage=2592000,public"},
		{"lookalike directive", "x-s-maxage=5", "x-s-maxage=5, s-maxage=2592000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MergeSharedMaxAge(tc.in, SharedMaxAge))
		})
	}
}

func TestSetSharedMaxAge_KeepsMaxAge(t *testing.T) {
	h := http.Header{}
	h.Set("Cache-Control", "max-age=60")
	SetSharedMaxAge(h, SharedMaxAge)

	got := h.Get("Cache-Control")
	assert.Equal(t, 1, strings.Count(got, "s-maxage=2592000"))
	assert.Contains(t, got, "max-age=60")

	SetSharedMaxAge(h, SharedMaxAge)
	assert.Equal(t, got, h.Get("Cache-Control"), "merging twice changes nothing")
}

func TestHeaderHandler(t *testing.T) {
	h := HeaderHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}), map[string]string{"X-Frame-Options": "DENY"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestExpiresHandler(t *testing.T) {
	h := ExpiresHandler(http.NotFoundHandler(), "/static/", 0, time.Hour)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap/", nil))
	assert.Empty(t, rec.Header().Get("Expires"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/sitemap-html.css", nil))
	exp, err := time.Parse(time.RFC1123, rec.Header().Get("Expires"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestErrorHandler(t *testing.T) {
	fsys := fstest.MapFS{
		"404.html": {Data: []byte("<h1>Not here</h1>")},
	}
	h := ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.Header().Set("Cache-Control", "max-age=60")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("partial content"))
		case "/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			w.Write([]byte("fine"))
		}
	}), fsys)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "<h1>Not here</h1>", rec.Body.String())
	assert.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom\n", rec.Body.String(), "no 500.html, so the handler's body stays")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "fine", rec.Body.String())
}

func TestRateLimitHandler(t *testing.T) {
	var calls int
	h := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}), 2, time.Minute)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/sitemap/", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, calls)

	req := httptest.NewRequest(http.MethodGet, "/sitemap/", nil)
	req.RemoteAddr = "192.0.2.11:4321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own budget")
}

func TestRateLimitHandler_ErrorPage(t *testing.T) {
	pages := fstest.MapFS{
		"429.html": {Data: []byte("<h1>Slow down</h1>")},
	}
	h := HeaderHandler(
		ExpiresHandler(
			ErrorHandler(
				RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte("sitemap"))
				}), 1, time.Minute),
				pages,
			),
			"/static/", 0, time.Hour,
		),
		nil,
	)

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/sitemap/", nil)
		req.RemoteAddr = "192.0.2.20:4321"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			assert.Equal(t, "sitemap", rec.Body.String())
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "<h1>Slow down</h1>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitHandler_Disabled(t *testing.T) {
	next := http.NotFoundHandler()
	assert.NotNil(t, RateLimitHandler(next, 0, time.Minute))
}
