package route

import (
	"strconv"
	"strings"

	"github.com/xwp/sitemap-html/date"
)

// URLs builds canonical sitemap links below a base URL, which may be a path
// such as "/sitemap" or an absolute URL.
type URLs struct {
	Base string
}

func (u URLs) join(parts ...string) string {
	return strings.TrimRight(u.Base, "/") + "/" + strings.Join(parts, "") + trailing(parts)
}

func trailing(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return "/"
}

// Root returns the link to the sitemap index.
func (u URLs) Root() string {
	return u.join()
}

// Month returns the link to the month containing ts.
func (u URLs) Month(ts date.Timestamp) string {
	return u.join(strconv.Itoa(ts.Year()), date.Pad(ts.Month()))
}

// Day returns the link to the day containing ts.
func (u URLs) Day(ts date.Timestamp) string {
	return u.join(strconv.Itoa(ts.Year()), date.Pad(ts.Month()), date.Pad(ts.Day()))
}
