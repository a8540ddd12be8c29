package render

import (
	"context"
	"fmt"
	"hash/fnv"
	"html/template"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache"

	"github.com/xwp/sitemap-html/date"
	"github.com/xwp/sitemap-html/route"
)

// groupSeq keeps group names unique; groupcache panics on a duplicate.
var groupSeq atomic.Int64

// Cache keeps rendered sitemap markup in a groupcache group. Entries expire
// at the end of a time slot of the configured duration.
type Cache struct {
	r        *Renderer
	group    *groupcache.Group
	duration time.Duration
}

// NewCache wraps r with a cache of the given size and expiry. A duration of
// zero disables caching.
func NewCache(r *Renderer, cacheBytes int64, cacheDuration time.Duration) *Cache {
	c := &Cache{r: r, duration: cacheDuration}
	name := "sitemapMarkup-" + strconv.FormatInt(groupSeq.Add(1), 10)
	c.group = groupcache.NewGroup(name, cacheBytes, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			q, err := url.ParseQuery(key)
			if err != nil {
				return fmt.Errorf("sitemapMarkup group: %w", err)
			}
			res, err := decodeResolution(q)
			if err != nil {
				return fmt.Errorf("sitemapMarkup group: %w", err)
			}
			html, err := r.Markup(ctx, res)
			if err != nil {
				return fmt.Errorf("sitemapMarkup group: %w", err)
			}
			return dest.SetString(string(html))
		}))
	return c
}

// Renderer returns the wrapped renderer.
func (c *Cache) Renderer() *Renderer {
	return c.r
}

// Markup is the cached version of Renderer.Markup.
func (c *Cache) Markup(ctx context.Context, res route.Resolution) (template.HTML, error) {
	if c.duration <= 0 {
		return c.r.Markup(ctx, res)
	}
	var (
		s string
		q = encodeResolution(res)
	)
	t := quantize(time.Now(), c.duration, q.Encode())
	q.Set("t", strconv.FormatInt(t, 10))
	err := c.group.Get(ctx, q.Encode(), groupcache.StringSink(&s))
	if err != nil {
		return "", fmt.Errorf("cachedMarkup: %w", err)
	}
	return template.HTML(s), nil
}

// Stats returns the counters of the underlying group.
func (c *Cache) Stats() groupcache.Stats {
	return c.group.Stats
}

func encodeResolution(res route.Resolution) url.Values {
	q := make(url.Values, 5)
	q.Set("kind", strconv.Itoa(int(res.Kind)))
	q.Set("y", strconv.Itoa(res.Fragment.Year))
	q.Set("m", strconv.Itoa(res.Fragment.Month))
	q.Set("d", strconv.Itoa(res.Fragment.Day))
	return q
}

func decodeResolution(q url.Values) (route.Resolution, error) {
	var (
		res route.Resolution
		n   [4]int
	)
	for i, k := range []string{"kind", "y", "m", "d"} {
		v, err := strconv.Atoi(q.Get(k))
		if err != nil {
			return res, fmt.Errorf("bad %s: %w", k, err)
		}
		n[i] = v
	}
	res.Kind = route.Kind(n[0])
	res.Fragment = route.Fragment{Year: n[1], Month: n[2], Day: n[3]}
	res.Timestamp = date.Invalid
	if !res.Fragment.Empty() {
		res.Timestamp = date.Make(n[1], n[2], n[3])
	}
	return res, nil
}

// quantize returns the start of the time slot of length d that now falls in.
// Slots are shifted by a hash of key so that entries do not all expire at once.
func quantize(now time.Time, d time.Duration, key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	offset := time.Duration(h.Sum64() % uint64(d))
	return now.Add(offset).Truncate(d).UnixNano()
}
