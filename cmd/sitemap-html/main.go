package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/facebookgo/flagenv"
	"github.com/joho/godotenv"

	"github.com/xwp/sitemap-html/assets"
	"github.com/xwp/sitemap-html/config"
	"github.com/xwp/sitemap-html/site"
	"github.com/xwp/sitemap-html/store"
	"github.com/xwp/sitemap-html/web"
)

func main() {
	// Values from .env become defaults for the SITEMAP_* variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Cannot load .env: %s", err)
	}

	// Setup flags
	var (
		fPort              = flag.Int("port", 8080, "Port to listen on.")
		fReadTimeout       = flag.Duration("readtimeout", 10*time.Second, "HTTP server read timeout.")
		fReadHeaderTimeout = flag.Duration("readheadertimeout", 5*time.Second, "HTTP server read header timeout.")
		fWriteTimeout      = flag.Duration("writetimeout", 30*time.Second, "HTTP server write timeout.")
		fRoot              = flag.String("root", ".", "Site folder holding sitemap.toml, static/ and pages/.")
		fDriver            = flag.String("driver", store.DriverSQLite, "Database driver: sqlite3 or postgres.")
		fDSN               = flag.String("dsn", "sitemap.db", "Database connection string.")
		fWatch             = flag.Bool("watch", false, "Reload templates when they change.")
	)
	flag.Parse()
	flagenv.Prefix = "SITEMAP_"
	flagenv.Parse()

	// Read settings
	cfg, err := config.Load(os.DirFS(*fRoot), config.FileName)
	if err != nil {
		log.Printf("Cannot load settings: %s", err)
		os.Exit(1)
	}
	if cfg.Templates != "" && !filepath.IsAbs(cfg.Templates) {
		cfg.Templates = filepath.Join(*fRoot, cfg.Templates)
	}
	log.Printf("Loaded settings from %q", *fRoot)

	// Open content store
	st, err := store.Open(*fDriver, *fDSN)
	if err != nil {
		log.Printf("Cannot open %s store: %s", *fDriver, err)
		os.Exit(2)
	}
	defer st.Close()

	app, err := site.New(cfg, st)
	if err != nil {
		log.Printf("Cannot create site: %s", err)
		os.Exit(3)
	}
	log.Printf("Loaded templates: %s", app.Renderer.DefinedTemplates())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.EnsureIndex(ctx); err != nil {
		log.Printf("Cannot build date index: %s", err)
		os.Exit(4)
	}
	if err := app.OnPageSaved(ctx); err != nil {
		log.Printf("Cannot schedule index updates: %s", err)
	}
	go app.Run(ctx)

	if *fWatch && cfg.Templates != "" {
		if err := app.Renderer.Watch(ctx, cfg.Templates); err != nil {
			log.Printf("Cannot watch templates: %s", err)
		} else {
			log.Printf("Watching %q for template changes", cfg.Templates)
		}
	}

	// Setup handlers
	static := assets.Cached(
		assets.Overlay(assets.Static(), filepath.Join(*fRoot, "static")),
		"static", cfg.Cache.Bytes, time.Duration(cfg.StaticExpires))
	mux := http.NewServeMux()
	mux.Handle(assets.StaticPrefix, assets.Handler(static))
	mux.Handle("/", app)

	handler := gziphandler.GzipHandler(
		web.HeaderHandler(
			web.ExpiresHandler(
				web.ErrorHandler(
					web.RateLimitHandler(mux, cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window)),
					assets.Overlay(assets.Pages(), filepath.Join(*fRoot, "pages")),
				),
				assets.StaticPrefix,
				time.Duration(cfg.Expires),
				time.Duration(cfg.StaticExpires),
			),
			cfg.Headers,
		),
	)
	log.Print("Created handlers")

	// Create HTTP server
	var srv = http.Server{
		Addr:              fmt.Sprintf(":%d", *fPort),
		Handler:           handler,
		ReadTimeout:       *fReadTimeout,
		WriteTimeout:      *fWriteTimeout,
		ReadHeaderTimeout: *fReadHeaderTimeout,
	}

	// Create signal handler for graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)

		// interrupt signal sent from terminal
		signal.Notify(sigint, os.Interrupt)
		// sigterm signal sent from kubernetes
		signal.Notify(sigint, syscall.SIGTERM)

		<-sigint
		cancel()

		// We received an interrupt signal, shut down.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Printf("HTTP server Shutdown: %v", err)
		}
	}()

	// Listen for requests
	log.Printf("Listening for requests on port %d", *fPort)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Printf("HTTP server: %v", err)
	} else {
		log.Print("Goodbye.")
	}
}
