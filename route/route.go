/*
Package route maps sitemap URLs to the view they select.

A sitemap page at /<slug>/ answers three kinds of path:

	/<slug>/            the index of every year and month
	/<slug>/YYYYMM/     the days of one month
	/<slug>/YYYYMMD/    the posts of one day (D is one or two digits)

Match extracts the raw tokens from a path and Resolver.Resolve turns them into
a Resolution, checking the content store so that dates without posts resolve
to NotFound.
*/
package route

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/xwp/sitemap-html/date"
)

// Kind is the view selected by a request.
type Kind int

const (
	Root Kind = iota
	Month
	Day
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Root:
		return "root"
	case Month:
		return "month"
	case Day:
		return "day"
	case NotFound:
		return "not found"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Tokens are the raw route parameters: a six digit year-month and an
// optional one or two digit day.
type Tokens struct {
	YearMonth string
	Day       string
}

// Fragment is the decoded date selector. Zero fields are absent.
type Fragment struct {
	Year  int
	Month int
	Day   int
}

// Empty reports whether no date was requested.
func (f Fragment) Empty() bool {
	return f == Fragment{}
}

// Decode extracts the date fragment from route tokens. The year is the first
// four digits of YearMonth and the month the next two; the month is not range
// checked. A day without a year-month is ignored, as is a day of zero.
func Decode(tok Tokens) Fragment {
	if len(tok.YearMonth) < 6 || !digits(tok.YearMonth) {
		return Fragment{}
	}
	var f Fragment
	f.Year, _ = strconv.Atoi(tok.YearMonth[:4])
	f.Month, _ = strconv.Atoi(tok.YearMonth[4:6])
	if digits(tok.Day) {
		f.Day, _ = strconv.Atoi(tok.Day)
	}
	return f
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	Kind      Kind
	Fragment  Fragment
	Timestamp date.Timestamp // UTC midnight of the first day of the period, or date.Invalid
}

// Checker reports whether published content exists for a date. A day of
// zero asks about the whole month.
type Checker interface {
	ExistsOn(ctx context.Context, types []string, year, month, day int) (bool, error)
}

// Resolver turns route tokens into a Resolution.
type Resolver struct {
	posts Checker
	types []string
}

// NewResolver returns a Resolver that checks content of the given types.
func NewResolver(posts Checker, types []string) *Resolver {
	return &Resolver{posts: posts, types: append([]string(nil), types...)}
}

// Resolve decodes tok and checks that content exists for the date it names.
// Only a failing content store is reported as an error.
func (r *Resolver) Resolve(ctx context.Context, tok Tokens) (Resolution, error) {
	f := Decode(tok)
	if f.Empty() {
		return Resolution{Kind: Root, Timestamp: date.Invalid}, nil
	}
	res := Resolution{
		Kind:      Month,
		Fragment:  f,
		Timestamp: date.Make(f.Year, f.Month, f.Day),
	}
	if f.Day != 0 {
		res.Kind = Day
	}
	if !res.Timestamp.Valid() {
		res.Kind = NotFound
		return res, nil
	}
	ok, err := r.posts.ExistsOn(ctx, r.types, f.Year, f.Month, f.Day)
	if err != nil {
		return Resolution{}, fmt.Errorf("Resolve: %w", err)
	}
	if !ok {
		res.Kind = NotFound
	}
	return res, nil
}

// SharedCacheable reports whether the response may be held by shared caches
// for a long time. The index, month views and the days of today and
// yesterday (UTC) still change and are left alone.
func (res Resolution) SharedCacheable(now time.Time) bool {
	switch {
	case res.Kind == Root, res.Kind == Month:
		return false
	case res.Kind == NotFound && res.Fragment.Day == 0:
		return false
	}
	if res.Timestamp.Valid() {
		diff := date.Today(now) - res.Timestamp
		if diff == 0 || diff == date.Day {
			return false
		}
	}
	return true
}

// Title appends the requested month or day to the page title.
func (res Resolution) Title(base string) string {
	switch res.Kind {
	case Month:
		return base + ": " + res.Timestamp.Time().Format("January 2006")
	case Day:
		return base + ": " + res.Timestamp.Time().Format("January 02, 2006")
	}
	return base
}

// Canonical returns the canonical URL of the resolved view.
func (res Resolution) Canonical(u URLs) string {
	switch res.Kind {
	case Month:
		return u.Month(res.Timestamp)
	case Day:
		return u.Day(res.Timestamp)
	}
	return u.Root()
}

// Pattern matches the sitemap routes below one page slug.
type Pattern struct {
	slug  string
	day   *regexp.Regexp
	month *regexp.Regexp
	root  *regexp.Regexp
}

// NewPattern compiles the routes for the page at /slug/.
func NewPattern(slug string) *Pattern {
	q := regexp.QuoteMeta(slug)
	return &Pattern{
		slug:  slug,
		day:   regexp.MustCompile(`^/?` + q + `/(\d{6})(\d{1,2})/?$`),
		month: regexp.MustCompile(`^/?` + q + `/(\d{6})/?$`),
		root:  regexp.MustCompile(`^/?` + q + `/?$`),
	}
}

// Slug returns the page slug the pattern was built for.
func (p *Pattern) Slug() string {
	return p.slug
}

// Match extracts the route tokens from a URL path. ok is false when the path
// is not a sitemap route.
func (p *Pattern) Match(path string) (tok Tokens, ok bool) {
	if m := p.day.FindStringSubmatch(path); m != nil {
		return Tokens{YearMonth: m[1], Day: m[2]}, true
	}
	if m := p.month.FindStringSubmatch(path); m != nil {
		return Tokens{YearMonth: m[1]}, true
	}
	if p.root.MatchString(path) {
		return Tokens{}, true
	}
	return Tokens{}, false
}
