/*
Package assets holds the files served next to the sitemap: the stylesheet
under /static/ and the pages shown for 404, 429 and 500 responses.

Files in a site folder take precedence over the built-in ones, so a site can
restyle the sitemap without rebuilding the binary.
*/
package assets

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ancientlore/cachefs"
)

// StaticPrefix is the URL path the static files are served under.
const StaticPrefix = "/static/"

//go:embed static pages
var files embed.FS

// Static returns the built-in static files.
func Static() fs.FS {
	sub, _ := fs.Sub(files, "static")
	return sub
}

// Pages returns the built-in error pages.
func Pages() fs.FS {
	sub, _ := fs.Sub(files, "pages")
	return sub
}

// overlay serves a file from top when it exists there and from base otherwise.
type overlay struct {
	top, base fs.FS
}

func (o overlay) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}

// Overlay returns base with the files of dir laid over it. An empty dir
// returns base unchanged.
func Overlay(base fs.FS, dir string) fs.FS {
	if dir == "" {
		return base
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return base
	}
	return overlay{top: os.DirFS(dir), base: base}
}

// Cached wraps fsys with a groupcache-backed cache whose entries expire
// after about d.
func Cached(fsys fs.FS, groupName string, sizeInBytes int64, d time.Duration) fs.FS {
	return cachefs.New(fsys, &cachefs.Config{
		GroupName:   groupName,
		SizeInBytes: sizeInBytes,
		Duration:    d,
	})
}

// hidden reports whether name has a path element starting with a period.
func hidden(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Handler serves fsys under StaticPrefix. Directory listings and dot files
// are hidden.
func Handler(fsys fs.FS) http.Handler {
	files := http.StripPrefix(StaticPrefix, http.FileServer(http.FS(fsys)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(r.URL.Path)
		if name == path.Clean(StaticPrefix) || path.Ext(name) == "" || hidden(name) {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
