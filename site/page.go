package site

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/russross/blackfriday/v2"

	"github.com/xwp/sitemap-html/store"
)

// FrontMatter holds settings placed at the top of the sitemap page body
// between +++ lines.
type FrontMatter struct {
	Title       string `toml:"title"`       // overrides the page title
	Description string `toml:"description"` // rendered as the meta description
}

// fmRegexp is the regular expression used to split out front matter.
var fmRegexp = regexp.MustCompile(`(?m)^\s*\+\+\+\s*$`)

// splitFrontMatter separates the front matter from the Markdown body.
func splitFrontMatter(x string) (fm, body string) {
	subs := fmRegexp.Split(x, 3)
	if len(subs) != 3 || strings.TrimSpace(subs[0]) != "" {
		return "", x
	}
	return strings.TrimSpace(subs[1]), strings.TrimSpace(subs[2])
}

// pageContent renders the sitemap page's own body, which comes before the
// sitemap itself.
func pageContent(p store.Post) (FrontMatter, template.HTML, error) {
	var fm FrontMatter
	raw, body := splitFrontMatter(p.Body)
	if raw != "" {
		if err := toml.Unmarshal([]byte(raw), &fm); err != nil {
			return fm, "", fmt.Errorf("pageContent: %w", err)
		}
	}
	if fm.Title == "" {
		fm.Title = p.Title
	}
	if strings.TrimSpace(body) == "" {
		return fm, "", nil
	}
	html := blackfriday.Run([]byte(body), blackfriday.WithExtensions(blackfriday.CommonExtensions))
	return fm, template.HTML(html), nil
}
