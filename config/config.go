// Package config reads the site settings from sitemap.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the settings file looked up in the site folder.
const FileName = "sitemap.toml"

// Cache backends for the date index.
const (
	BackendOptions = "options"
	BackendLarge   = "large"
)

// Config contains the settings from sitemap.toml.
type Config struct {
	Title         string            `toml:"title" validate:"required"`
	PageSlug      string            `toml:"page_slug" validate:"required,excludesall=/?# "`
	ContentTypes  []string          `toml:"content_types" validate:"min=1,dive,required,excludesall=/"`
	Permalink     string            `toml:"permalink" validate:"required,startswith=/"`
	Backend       string            `toml:"backend" validate:"oneof=options large"`
	BaseURL       string            `toml:"base_url" validate:"omitempty,url"`
	Stylesheet    string            `toml:"stylesheet"`
	Templates     string            `toml:"templates"`
	Expires       Duration          `toml:"expires" validate:"gte=0"`
	StaticExpires Duration          `toml:"staticexpires" validate:"gte=0"`
	Headers       map[string]string `toml:"headers"`
	Cache         Cache             `toml:"cache"`
	RateLimit     RateLimit         `toml:"ratelimit"`
	Schedule      Schedule          `toml:"schedule"`
}

// Cache sizes the rendered-markup cache.
type Cache struct {
	Bytes    int64    `toml:"bytes" validate:"gte=0"`
	Duration Duration `toml:"duration" validate:"gte=0"`
}

// RateLimit caps requests per client. A zero limit turns it off.
type RateLimit struct {
	Limit  int      `toml:"limit" validate:"gte=0"`
	Window Duration `toml:"window" validate:"gte=0"`
}

// Schedule controls the background task runner.
type Schedule struct {
	PollInterval Duration `toml:"poll_interval" validate:"gt=0"`
}

// Default returns the settings used when sitemap.toml is absent.
func Default() *Config {
	return &Config{
		Title:         "Sitemap",
		PageSlug:      "sitemap",
		ContentTypes:  []string{"post"},
		Permalink:     "/%year%/%monthnum%/%day%/%postname%/",
		Backend:       BackendOptions,
		Stylesheet:    "/static/sitemap-html.css",
		StaticExpires: Duration(24 * time.Hour),
		Cache: Cache{
			Bytes:    10 << 20,
			Duration: Duration(time.Minute),
		},
		RateLimit: RateLimit{
			Limit:  600,
			Window: Duration(time.Minute),
		},
		Schedule: Schedule{
			PollInterval: Duration(time.Minute),
		},
	}
}

// Load reads name from fsys on top of the defaults and validates the result.
// It is not an error if the file does not exist.
func Load(fsys fs.FS, name string) (*Config, error) {
	cfg := Default()
	b, err := fs.ReadFile(fsys, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("Cannot read config file: %w", err)
	default:
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("Cannot parse config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the settings and names every invalid field.
func (cfg *Config) Validate() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("Validate: %w", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), validationMessage(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "url":
		return "must be an absolute URL"
	case "startswith":
		return "must start with " + fe.Param()
	case "excludesall":
		return "must not contain any of " + fmt.Sprintf("%q", fe.Param())
	case "min":
		return "must have at least " + fe.Param() + " entry"
	case "gt":
		return "must be positive"
	case "gte":
		return "must not be negative"
	default:
		return "failed validation: " + fe.Tag()
	}
}

// Types returns the content types with surrounding space removed.
func (cfg *Config) Types() []string {
	types := make([]string, 0, len(cfg.ContentTypes))
	for _, t := range cfg.ContentTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// PagePath returns the path of the sitemap page, such as "/sitemap/".
func (cfg *Config) PagePath() string {
	return "/" + cfg.PageSlug + "/"
}

// Base returns the base of sitemap links: BaseURL joined with the page path,
// or the page path alone.
func (cfg *Config) Base() string {
	return strings.TrimRight(cfg.BaseURL, "/") + cfg.PagePath()
}
