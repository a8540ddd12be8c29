package web

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var gmtZone *time.Location

func init() {
	var err error
	gmtZone, err = time.LoadLocation("GMT")
	if err != nil {
		gmtZone = time.UTC
	}
}

// SharedMaxAge is the shared cache lifetime, in seconds, given to sitemap
// views that no longer change.
const SharedMaxAge = 30 * 24 * 60 * 60

// defaultCacheControl is used when the response has no Cache-Control yet.
const defaultCacheControl = "max-age=300, stale-while-revalidate"

// sMaxAgeRegexp matches one s-maxage directive together with the comma and
// space before it.
var sMaxAgeRegexp = regexp.MustCompile(`(?:^|,)\s*s-maxage=\d+`)

// MergeSharedMaxAge returns the Cache-Control value v with s-maxage set to
// seconds. The first s-maxage is replaced in place and any later ones are
// dropped; without one, the directive is appended. Other directives are kept
// as they are.
func MergeSharedMaxAge(v string, seconds int) string {
	directive := "s-maxage=" + strconv.Itoa(seconds)
	if strings.TrimSpace(v) == "" {
		return defaultCacheControl + ", " + directive
	}
	locs := sMaxAgeRegexp.FindAllStringIndex(v, -1)
	if len(locs) == 0 {
		return v + ", " + directive
	}
	var b strings.Builder
	first := locs[0]
	b.WriteString(v[:first[0]+strings.Index(v[first[0]:first[1]], "s-maxage")])
	b.WriteString(directive)
	last := first[1]
	for _, loc := range locs[1:] {
		b.WriteString(v[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(v[last:])
	return b.String()
}

// SetSharedMaxAge merges s-maxage into the Cache-Control header of h.
func SetSharedMaxAge(h http.Header, seconds int) {
	h.Set("Cache-Control", MergeSharedMaxAge(h.Get("Cache-Control"), seconds))
}

// HeaderHandler returns an http.Handler that adds the given headers to the response.
func HeaderHandler(h http.Handler, headers map[string]string) http.Handler {
	if len(headers) == 0 {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		h.ServeHTTP(w, r)
	})
}

// ExpiresHandler adds the Expires header, choosing expires for sitemap pages
// and staticExpires for files under staticPrefix.
func ExpiresHandler(h http.Handler, staticPrefix string, expires, staticExpires time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expiry := expires
		if strings.HasPrefix(r.URL.Path, staticPrefix) {
			expiry = staticExpires
		}
		if expiry != 0 {
			w.Header().Set("Expires", time.Now().Add(expiry).In(gmtZone).Format(time.RFC1123))
		}
		h.ServeHTTP(w, r)
	})
}
