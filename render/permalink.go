package render

import (
	"strconv"
	"strings"

	"github.com/xwp/sitemap-html/date"
	"github.com/xwp/sitemap-html/store"
)

// Permalink is a link pattern for posts. The tokens %year%, %monthnum%,
// %day%, %postname%, %post_type% and %post_id% are replaced per post.
type Permalink string

// DefaultPermalink links posts by date and slug.
const DefaultPermalink Permalink = "/%year%/%monthnum%/%day%/%postname%/"

// Expand returns the link to p. Pages always live at /slug/.
func (pl Permalink) Expand(p store.Post) string {
	if p.Type == store.TypePage {
		return "/" + p.Slug + "/"
	}
	t := p.PublishedAt.UTC()
	return strings.NewReplacer(
		"%year%", strconv.Itoa(t.Year()),
		"%monthnum%", date.Pad(int(t.Month())),
		"%day%", date.Pad(t.Day()),
		"%postname%", p.Slug,
		"%post_type%", p.Type,
		"%post_id%", strconv.FormatInt(p.ID, 10),
	).Replace(string(pl))
}
