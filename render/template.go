package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/xwp/sitemap-html/route"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// Document is what the "layout" template draws around the sitemap.
type Document struct {
	Title       string        // contents of <title>
	Description string        // meta description
	Heading     string        // page heading
	Canonical   string        // canonical URL of the view
	Stylesheet  string        // URL of the sitemap stylesheet
	Body        template.HTML // the sitemap page's own content
	Sitemap     template.HTML // output of Markup
}

// getTemplates returns the current template set.
func (r *Renderer) getTemplates() *template.Template {
	r.tplMutex.RLock()
	defer r.tplMutex.RUnlock()
	return r.tpl
}

// LoadTemplates parses the built-in templates and then any *.html files in
// dir, whose definitions replace the built-in ones. An empty or missing dir
// leaves the built-in templates alone.
func (r *Renderer) LoadTemplates(dir string) error {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}
	tpl, err := template.New("sitemap-html").Funcs(funcMap).ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return fmt.Errorf("LoadTemplates: %w", err)
	}
	if dir != "" {
		fi, err := os.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.IsDir()):
		case err != nil:
			return fmt.Errorf("LoadTemplates: %w", err)
		default:
			custom := os.DirFS(dir)
			if names, _ := fs.Glob(custom, "*.html"); len(names) > 0 {
				if tpl, err = tpl.ParseFS(custom, "*.html"); err != nil {
					return fmt.Errorf("LoadTemplates: %w", err)
				}
			}
		}
	}
	r.tplMutex.Lock()
	r.tpl = tpl
	r.tplMutex.Unlock()
	return nil
}

// DefinedTemplates lists the names of the loaded templates.
func (r *Renderer) DefinedTemplates() string {
	return r.getTemplates().DefinedTemplates()
}

// Execute runs the named template.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	if err := r.getTemplates().ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("Execute: %w", err)
	}
	return nil
}

// Markup builds the resolved view and returns its HTML.
func (r *Renderer) Markup(ctx context.Context, res route.Resolution) (template.HTML, error) {
	page, err := r.Build(ctx, res)
	if err != nil {
		return "", fmt.Errorf("Markup: %w", err)
	}
	var buf bytes.Buffer
	if err := r.Execute(&buf, "sitemap", page); err != nil {
		return "", fmt.Errorf("Markup: %w", err)
	}
	return template.HTML(buf.String()), nil
}
