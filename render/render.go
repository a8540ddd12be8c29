/*
Package render turns a resolved sitemap view into link sections and HTML.

Build collects the links for a view: the index and month views read the
cached date index, the day view asks the content store for the posts of that
exact day. Markup executes the "sitemap" template over the result; labels and
links are escaped by html/template.
*/
package render

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"sync"
	"time"

	"github.com/xwp/sitemap-html/date"
	"github.com/xwp/sitemap-html/index"
	"github.com/xwp/sitemap-html/route"
	"github.com/xwp/sitemap-html/store"
)

// DayLimit caps the number of posts listed for one day.
const DayLimit = 100

// Section classes.
const (
	ClassYear  = "sitemap-html__year"
	ClassMonth = "sitemap-html__month"
	ClassDay   = "sitemap-html__day"
)

// Dates is the read side of the date index.
type Dates interface {
	YearsWithMonths(ctx context.Context) index.YearIndex
	MonthsWithDays(ctx context.Context, year, month int) []int
}

// Posts lists the published content of one day.
type Posts interface {
	PostsOn(ctx context.Context, types []string, year, month, day, limit int) ([]store.Post, error)
}

// Item is one link of a section.
type Item struct {
	Label string
	Link  string
}

// Section is a labeled group of links.
type Section struct {
	Label   string
	Classes []string
	Items   []Item
}

// Breadcrumb is one step of the trail back to the sitemap index.
type Breadcrumb struct {
	Label    string
	Link     string
	Position int
}

// Page is everything the "sitemap" template draws.
type Page struct {
	Kind        route.Kind
	Sections    []Section
	Breadcrumbs []Breadcrumb
}

// Empty reports whether the page has no links at all.
func (p Page) Empty() bool {
	for _, s := range p.Sections {
		if len(s.Items) > 0 {
			return false
		}
	}
	return true
}

// Renderer builds sitemap pages for one sitemap configuration.
type Renderer struct {
	dates     Dates
	posts     Posts
	types     []string
	urls      route.URLs
	permalink Permalink

	tplMutex sync.RWMutex
	tpl      *template.Template
}

// New returns a Renderer using the built-in templates.
func New(dates Dates, posts Posts, types []string, urls route.URLs, permalink Permalink) (*Renderer, error) {
	if permalink == "" {
		permalink = DefaultPermalink
	}
	r := &Renderer{
		dates:     dates,
		posts:     posts,
		types:     append([]string(nil), types...),
		urls:      urls,
		permalink: permalink,
	}
	if err := r.LoadTemplates(""); err != nil {
		return nil, err
	}
	return r, nil
}

// URLs returns the link builder the renderer uses.
func (r *Renderer) URLs() route.URLs {
	return r.urls
}

// Build collects the sections and breadcrumbs of the resolved view.
func (r *Renderer) Build(ctx context.Context, res route.Resolution) (Page, error) {
	page := Page{Kind: res.Kind}
	switch res.Kind {
	case route.Root:
		page.Sections = r.years(ctx)
	case route.Month:
		page.Sections = []Section{r.month(ctx, res.Timestamp)}
	case route.Day:
		s, err := r.day(ctx, res.Timestamp)
		if err != nil {
			return Page{}, fmt.Errorf("Build: %w", err)
		}
		page.Sections = []Section{s}
	}
	if res.Kind == route.Month || res.Kind == route.Day {
		page.Breadcrumbs = r.breadcrumbs(res)
	}
	return page, nil
}

func (r *Renderer) years(ctx context.Context) []Section {
	var sections []Section
	for _, y := range r.dates.YearsWithMonths(ctx) {
		s := Section{
			Label:   strconv.Itoa(y.Year),
			Classes: []string{ClassYear},
		}
		// The index keeps months newest first; a year reads January onward.
		for i := len(y.Months) - 1; i >= 0; i-- {
			ts := date.Make(y.Year, y.Months[i], 1)
			if !ts.Valid() {
				continue
			}
			s.Items = append(s.Items, Item{
				Label: time.Month(y.Months[i]).String(),
				Link:  r.urls.Month(ts),
			})
		}
		sections = append(sections, s)
	}
	return sections
}

func (r *Renderer) month(ctx context.Context, ts date.Timestamp) Section {
	s := Section{
		Label:   ts.Time().Format("January 2006"),
		Classes: []string{ClassMonth},
	}
	for _, d := range r.dates.MonthsWithDays(ctx, ts.Year(), ts.Month()) {
		day := date.Make(ts.Year(), ts.Month(), d)
		if !day.Valid() {
			continue
		}
		s.Items = append(s.Items, Item{
			Label: day.Time().Format("January 2"),
			Link:  r.urls.Day(day),
		})
	}
	return s
}

func (r *Renderer) day(ctx context.Context, ts date.Timestamp) (Section, error) {
	s := Section{
		Label:   ts.Time().Format("January 2, 2006"),
		Classes: []string{ClassDay},
	}
	posts, err := r.posts.PostsOn(ctx, r.types, ts.Year(), ts.Month(), ts.Day(), DayLimit)
	if err != nil {
		return s, err
	}
	for _, p := range posts {
		s.Items = append(s.Items, Item{Label: p.Title, Link: r.permalink.Expand(p)})
	}
	return s, nil
}

func (r *Renderer) breadcrumbs(res route.Resolution) []Breadcrumb {
	crumbs := []Breadcrumb{{Label: "Index", Link: r.urls.Root(), Position: 1}}
	if res.Kind == route.Day {
		crumbs = append(crumbs, Breadcrumb{
			Label:    res.Timestamp.Time().Format("January 2006"),
			Link:     r.urls.Month(res.Timestamp),
			Position: 2,
		})
	}
	return crumbs
}
