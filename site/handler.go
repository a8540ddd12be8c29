package site

import (
	"bytes"
	"errors"
	"log"
	"net/http"

	"github.com/xwp/sitemap-html/render"
	"github.com/xwp/sitemap-html/route"
	"github.com/xwp/sitemap-html/store"
	"github.com/xwp/sitemap-html/web"
)

// ServeHTTP serves the sitemap page and its date views. Paths outside the
// sitemap, and dates without published content, get 404 Not Found.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	tok, ok := a.pattern.Match(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	page, err := a.Store.PageBySlug(ctx, a.pattern.Slug())
	if errors.Is(err, store.ErrNotFound) || (err == nil && page.Status != store.StatusPublish) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("ServeHTTP: %s", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	res, err := a.Resolver.Resolve(ctx, tok)
	if err != nil {
		log.Printf("ServeHTTP: %s", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if res.SharedCacheable(a.Now()) {
		web.SetSharedMaxAge(w.Header(), web.SharedMaxAge)
	}
	if res.Kind == route.NotFound {
		http.NotFound(w, r)
		return
	}

	sitemap, err := a.markup.Markup(ctx, res)
	if err != nil {
		log.Printf("ServeHTTP: %s", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	fm, body, err := pageContent(*page)
	if err != nil {
		// A broken page body must not hide the sitemap.
		log.Printf("ServeHTTP: %s", err)
	}
	title := fm.Title
	if title == "" {
		title = a.Config.Title
	}

	var buf bytes.Buffer
	err = a.Renderer.Execute(&buf, "layout", render.Document{
		Title:       res.Title(title),
		Description: fm.Description,
		Heading:     title,
		Canonical:   res.Canonical(a.urls),
		Stylesheet:  a.Config.Stylesheet,
		Body:        body,
		Sitemap:     sitemap,
	})
	if err != nil {
		log.Printf("ServeHTTP: %s", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("ServeHTTP: %s", err)
	}
}
