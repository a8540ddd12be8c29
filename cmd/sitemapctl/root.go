package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xwp/sitemap-html/config"
	"github.com/xwp/sitemap-html/site"
	"github.com/xwp/sitemap-html/store"
)

// options are the persistent flags shared by every command.
type options struct {
	root   string
	driver string
	dsn    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "sitemapctl",
		Short: "Manage the date-organized HTML sitemap",
		Long: `sitemapctl manages the content store behind the HTML sitemap.

It creates the sitemap page, adds and publishes content, rebuilds the date
index and runs due index updates. Settings are read from sitemap.toml in the
site folder; SITEMAP_DRIVER and SITEMAP_DSN (also from .env) pick the store.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.root, "root", ".", "site folder holding sitemap.toml")
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", env("SITEMAP_DRIVER", store.DriverSQLite), "database driver: sqlite3 or postgres")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", env("SITEMAP_DSN", "sitemap.db"), "database connection string")

	cmd.AddCommand(
		newInitCmd(opts),
		newRebuildCmd(opts),
		newAddCmd(opts),
		newStatusCmd(opts, "publish", store.StatusPublish),
		newStatusCmd(opts, "unpublish", store.StatusDraft),
		newNoticesCmd(opts),
		newScheduleCmd(opts),
	)
	return cmd
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// open loads the settings and store and builds the App. The returned
// function closes the store.
func (o *options) open() (*site.App, func(), error) {
	cfg, err := config.Load(os.DirFS(o.root), config.FileName)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Templates != "" && !filepath.IsAbs(cfg.Templates) {
		cfg.Templates = filepath.Join(o.root, cfg.Templates)
	}
	st, err := store.Open(o.driver, o.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	app, err := site.New(cfg, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return app, func() { st.Close() }, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
