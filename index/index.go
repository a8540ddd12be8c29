/*
Package index builds and caches the hierarchy of dates that have published
content.

Rebuild runs one DISTINCT query over the content store and stores the
resulting day timestamps, newest first, as a single value in a Backend. Every
other operation reads that value and derives years, months and days from it,
so rendering never touches the posts table for the root and month views.
*/
package index

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xwp/sitemap-html/date"
	"github.com/xwp/sitemap-html/store"
)

// Backend persists the cached aggregate. Set must replace the value for a
// key atomically. Get returns store.ErrNotFound on a miss. store.Options and
// store.LargeOptions both satisfy it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Source is the part of the content store the index reads from.
type Source interface {
	DaysQuery(n int) string
	DistinctDays(ctx context.Context, types []string) ([]time.Time, error)
}

// DayRecord is one calendar day with at least one published item.
type DayRecord struct {
	Year  int
	Month int
	Day   int
}

// YearMonths lists the months of one year that have content.
type YearMonths struct {
	Year   int
	Months []int
}

// YearIndex is the list of years with content, newest first.
type YearIndex []YearMonths

// Months returns the months recorded for year, or nil.
func (yi YearIndex) Months(year int) []int {
	for _, y := range yi {
		if y.Year == year {
			return y.Months
		}
	}
	return nil
}

// Index is the cached date index of one sitemap configuration.
type Index struct {
	source  Source
	backend Backend
	types   []string
}

// New returns an Index over the given content types. An empty list means "post".
func New(source Source, backend Backend, types []string) *Index {
	if len(types) == 0 {
		types = []string{"post"}
	}
	return &Index{
		source:  source,
		backend: backend,
		types:   append([]string(nil), types...),
	}
}

// Types returns the content types the index covers.
func (ix *Index) Types() []string {
	return append([]string(nil), ix.types...)
}

// CacheKey is derived from the query shape and the content types, so
// different sitemap configurations never share a cached value.
func (ix *Index) CacheKey() string {
	sum := md5.Sum([]byte(ix.source.DaysQuery(len(ix.types)) + strings.Join(ix.types, "/")))
	return "sitemap-html-posts-" + hex.EncodeToString(sum[:])
}

// Rebuild queries every distinct publish day and replaces the cached value.
func (ix *Index) Rebuild(ctx context.Context) ([]date.Timestamp, error) {
	days, err := ix.source.DistinctDays(ctx, ix.types)
	if err != nil {
		return nil, fmt.Errorf("Rebuild: %w", err)
	}
	stamps := make([]date.Timestamp, 0, len(days))
	for _, d := range days {
		stamps = append(stamps, date.FromTime(d))
	}
	b, err := json.Marshal(stamps)
	if err != nil {
		return nil, fmt.Errorf("Rebuild: %w", err)
	}
	if err := ix.backend.Set(ctx, ix.CacheKey(), b); err != nil {
		return nil, fmt.Errorf("Rebuild: %w", err)
	}
	return stamps, nil
}

// load reads the cached timestamps. ok is false on a miss, a backend
// failure, or a value that is not a list of integers.
func (ix *Index) load(ctx context.Context) (stamps []date.Timestamp, ok bool) {
	b, err := ix.backend.Get(ctx, ix.CacheKey())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("index: %s", err)
		}
		return nil, false
	}
	if err := json.Unmarshal(b, &stamps); err != nil || stamps == nil {
		return nil, false
	}
	return stamps, true
}

// IsCached reports whether a cached aggregate exists for the current key.
func (ix *Index) IsCached(ctx context.Context) bool {
	_, ok := ix.load(ctx)
	return ok
}

// Days returns every cached day, newest first.
func (ix *Index) Days(ctx context.Context) []DayRecord {
	stamps, _ := ix.load(ctx)
	days := make([]DayRecord, 0, len(stamps))
	for _, ts := range stamps {
		days = append(days, DayRecord{Year: ts.Year(), Month: ts.Month(), Day: ts.Day()})
	}
	return days
}

// Months returns the first cached day of every distinct (year, month), in
// cached order.
func (ix *Index) Months(ctx context.Context) []DayRecord {
	var (
		months []DayRecord
		seen   = make(map[[2]int]bool)
	)
	for _, d := range ix.Days(ctx) {
		k := [2]int{d.Year, d.Month}
		if seen[k] {
			continue
		}
		seen[k] = true
		months = append(months, d)
	}
	return months
}

// YearsWithMonths groups the months with content by year. Years and months
// keep the cached newest-first order.
func (ix *Index) YearsWithMonths(ctx context.Context) YearIndex {
	var (
		yi  YearIndex
		pos = make(map[int]int)
	)
	for _, m := range ix.Months(ctx) {
		if i, ok := pos[m.Year]; ok {
			yi[i].Months = append(yi[i].Months, m.Month)
			continue
		}
		pos[m.Year] = len(yi)
		yi = append(yi, YearMonths{Year: m.Year, Months: []int{m.Month}})
	}
	return yi
}

// MonthsWithDays returns the distinct days of the month that have content,
// most recent first.
func (ix *Index) MonthsWithDays(ctx context.Context, year, month int) []int {
	var (
		days []int
		seen = make(map[int]bool)
	)
	for _, d := range ix.Days(ctx) {
		if d.Year != year || d.Month != month || seen[d.Day] {
			continue
		}
		seen[d.Day] = true
		days = append(days, d.Day)
	}
	return days
}
