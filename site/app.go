/*
Package site wires the sitemap together.

An App is built once at startup from the settings and the content store and
then shared by the HTTP handler, the background runner and the operator
commands. It owns the date index, the resolver and renderer over it, and the
scheduler that keeps the index fresh.
*/
package site

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/xwp/sitemap-html/config"
	"github.com/xwp/sitemap-html/index"
	"github.com/xwp/sitemap-html/render"
	"github.com/xwp/sitemap-html/route"
	"github.com/xwp/sitemap-html/schedule"
	"github.com/xwp/sitemap-html/store"
)

// Marker produces the sitemap markup of a resolved view.
type Marker interface {
	Markup(ctx context.Context, res route.Resolution) (template.HTML, error)
}

// App is the application context.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Index     *index.Index
	Resolver  *route.Resolver
	Renderer  *render.Renderer
	Scheduler *schedule.Scheduler
	Runner    *schedule.Runner

	// Now is the clock used for cache headers and scheduling.
	Now func() time.Time

	markup  Marker
	pattern *route.Pattern
	urls    route.URLs
}

// New builds the App for cfg over st.
func New(cfg *config.Config, st *store.Store) (*App, error) {
	types := cfg.Types()
	ix := index.New(st, backend(cfg, st), types)
	urls := route.URLs{Base: cfg.Base()}

	r, err := render.New(ix, st, ix.Types(), route.URLs{Base: cfg.PagePath()}, render.Permalink(cfg.Permalink))
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	if cfg.Templates != "" {
		if err := r.LoadTemplates(cfg.Templates); err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
	}

	a := &App{
		Config:    cfg,
		Store:     st,
		Index:     ix,
		Resolver:  route.NewResolver(st, ix.Types()),
		Renderer:  r,
		Scheduler: schedule.New(st),
		Runner:    schedule.NewRunner(st),
		Now:       time.Now,
		markup:    render.NewCache(r, cfg.Cache.Bytes, time.Duration(cfg.Cache.Duration)),
		pattern:   route.NewPattern(cfg.PageSlug),
		urls:      urls,
	}
	a.Runner.Handle(schedule.ActionUpdate, a.rebuild)
	a.Runner.Handle(schedule.ActionUpdateDaily, a.rebuild)
	return a, nil
}

// backend picks the store the date index is cached in.
func backend(cfg *config.Config, st *store.Store) index.Backend {
	if cfg.Backend == config.BackendLarge {
		return st.LargeOptions()
	}
	return st.Options()
}

func (a *App) rebuild(ctx context.Context) error {
	_, err := a.Rebuild(ctx)
	return err
}

// Rebuild recomputes the date index and returns the number of days with content.
func (a *App) Rebuild(ctx context.Context) (int, error) {
	days, err := a.Index.Rebuild(ctx)
	if err != nil {
		return 0, fmt.Errorf("Rebuild: %w", err)
	}
	log.Printf("Rebuilt date index %s with %d days", a.Index.CacheKey(), len(days))
	return len(days), nil
}

// EnsureIndex builds the date index when nothing is cached yet.
func (a *App) EnsureIndex(ctx context.Context) error {
	if a.Index.IsCached(ctx) {
		return nil
	}
	_, err := a.Rebuild(ctx)
	return err
}

// Run keeps the date index fresh until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Runner.Run(ctx, time.Duration(a.Config.Schedule.PollInterval))
}
