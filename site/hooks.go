package site

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/xwp/sitemap-html/store"
)

// Transient names of the messages left for the operator by CreatePage.
const (
	NoticeKey = "sitemap_html_activation_notice"
	ErrorKey  = "sitemap_html_activation_error"
)

// NoticeTTL is how long an operator message is kept.
const NoticeTTL = time.Hour

// Notice is one operator message.
type Notice struct {
	Error   bool
	Message string
}

func (n Notice) String() string {
	if n.Error {
		return "error: " + n.Message
	}
	return n.Message
}

// PublishChanged reports whether a status change publishes or unpublishes an item.
func PublishChanged(newStatus, oldStatus string) bool {
	return newStatus != oldStatus && (newStatus == store.StatusPublish || oldStatus == store.StatusPublish)
}

// OnPageSaved schedules index updates while the sitemap page exists and
// removes the daily update once it is gone.
func (a *App) OnPageSaved(ctx context.Context) error {
	_, err := a.Store.PageBySlug(ctx, a.Config.PageSlug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return a.Scheduler.UnscheduleUpdate(ctx)
	case err != nil:
		return fmt.Errorf("OnPageSaved: %w", err)
	}
	return a.Scheduler.ScheduleUpdate(ctx, a.Now())
}

// OnStatusTransition schedules an index update when an item of a sitemap
// content type is published or unpublished.
func (a *App) OnStatusTransition(ctx context.Context, newStatus, oldStatus, typ string) error {
	if !PublishChanged(newStatus, oldStatus) || !slices.Contains(a.Index.Types(), typ) {
		return nil
	}
	return a.Scheduler.ScheduleUpdate(ctx, a.Now())
}

// saved runs the hooks that follow any write of a post or page.
func (a *App) saved(ctx context.Context, p store.Post, oldStatus string) error {
	if err := a.OnStatusTransition(ctx, p.Status, oldStatus, p.Type); err != nil {
		return err
	}
	return a.OnPageSaved(ctx)
}

// AddPost stores a new item and runs the save hooks.
func (a *App) AddPost(ctx context.Context, p *store.Post) error {
	if err := a.Store.InsertPost(ctx, p); err != nil {
		return fmt.Errorf("AddPost: %w", err)
	}
	return a.saved(ctx, *p, "new")
}

// SetStatus changes the status of an item and runs the save hooks.
func (a *App) SetStatus(ctx context.Context, id int64, status string) (store.Post, error) {
	old, err := a.Store.SetStatus(ctx, id, status)
	if err != nil {
		return store.Post{}, fmt.Errorf("SetStatus: %w", err)
	}
	p, err := a.Store.Post(ctx, id)
	if err != nil {
		return store.Post{}, fmt.Errorf("SetStatus: %w", err)
	}
	return *p, a.saved(ctx, *p, old)
}

// CreatePage makes sure the sitemap page exists and leaves a notice saying
// what happened. An existing page is not an error.
func (a *App) CreatePage(ctx context.Context) (bool, error) {
	slug := a.Config.PageSlug
	link := a.Config.PagePath()
	_, err := a.Store.PageBySlug(ctx, slug)
	if err == nil {
		msg := fmt.Sprintf("The page with the %q slug already exists. The sitemap will be appended to the page available at %s.", slug, link)
		return false, a.Store.SetTransient(ctx, NoticeKey, msg, NoticeTTL)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("CreatePage: %w", err)
	}

	p := store.Post{
		Type:        store.TypePage,
		Status:      store.StatusPublish,
		Slug:        slug,
		Title:       a.Config.Title,
		PublishedAt: a.Now().UTC(),
	}
	if err := a.Store.InsertPost(ctx, &p); err != nil {
		if terr := a.Store.SetTransient(ctx, ErrorKey, err.Error(), NoticeTTL); terr != nil {
			return false, fmt.Errorf("CreatePage: %w", errors.Join(err, terr))
		}
		return false, fmt.Errorf("CreatePage: %w", err)
	}
	msg := fmt.Sprintf("The page with the %q slug has been created. The sitemap is available at %s.", slug, link)
	if err := a.Store.SetTransient(ctx, NoticeKey, msg, NoticeTTL); err != nil {
		return true, fmt.Errorf("CreatePage: %w", err)
	}
	return true, a.OnPageSaved(ctx)
}

// Notices returns the pending operator messages and clears them.
func (a *App) Notices(ctx context.Context) ([]Notice, error) {
	var notices []Notice
	for _, key := range []string{ErrorKey, NoticeKey} {
		msg, err := a.Store.Transient(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("Notices: %w", err)
		}
		n := Notice{Message: msg}
		if key == ErrorKey {
			n.Error = true
			n.Message = fmt.Sprintf("The page with the %q slug could not be created, please create it manually. Error message: %s", a.Config.PageSlug, msg)
		}
		notices = append(notices, n)
		if err := a.Store.DeleteTransient(ctx, key); err != nil {
			return nil, fmt.Errorf("Notices: %w", err)
		}
	}
	return notices, nil
}
