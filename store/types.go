package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key, page or task does not exist.
var ErrNotFound = errors.New("not found")

// Post statuses.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// TypePage is the content type of stand-alone pages such as the sitemap anchor.
const TypePage = "page"

// Post is one item of the content store.
type Post struct {
	ID          int64
	Type        string // "post", "page" or a custom type
	Status      string // "publish", "draft", ...
	Slug        string
	Title       string
	Body        string // Markdown, may start with +++ front matter
	PublishedAt time.Time
}

// Task is a scheduled run of a named action.
type Task struct {
	ID         int64
	Name       string
	RunAt      time.Time
	Recurrence string // "" for one-shot tasks, "daily" for recurring ones
}

// Recurring reports whether t repeats.
func (t Task) Recurring() bool {
	return t.Recurrence != ""
}

// Interval returns the gap between runs of a recurring task.
func (t Task) Interval() time.Duration {
	switch t.Recurrence {
	case RecurDaily:
		return 24 * time.Hour
	}
	return 0
}

// RecurDaily marks a task that runs once a day.
const RecurDaily = "daily"
