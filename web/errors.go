package web

import (
	"io/fs"
	"net/http"
)

// ErrorHandler replaces the body of 404, 429 and 500 responses with
// 404.html, 429.html or 500.html from fsys when that file exists. Headers
// already set by the wrapped handler, such as Cache-Control, are kept.
func ErrorHandler(h http.Handler, fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseWriter{
			ResponseWriter: w,
			fsys:           fsys,
			head:           r.Method == http.MethodHead,
		}
		h.ServeHTTP(writer, r)
	})
}

var errorPages = map[int]string{
	http.StatusNotFound:            "404.html",
	http.StatusTooManyRequests:     "429.html",
	http.StatusInternalServerError: "500.html",
}

type responseWriter struct {
	http.ResponseWriter
	fsys    fs.FS
	head    bool
	noWrite bool
	err     error
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.noWrite {
		return len(b), w.err
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if file, ok := errorPages[statusCode]; ok && w.fsys != nil {
		b, err := fs.ReadFile(w.fsys, file)
		if err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Del("Content-Length")
			w.Header().Del("X-Content-Type-Options")
			w.ResponseWriter.WriteHeader(statusCode)
			w.noWrite = true
			if !w.head {
				_, w.err = w.ResponseWriter.Write(b)
			}
			return
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
