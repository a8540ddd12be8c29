package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xwp/sitemap-html/store"
)

// dateLayouts are the accepted forms of --date, read as UTC.
var dateLayouts = []string{time.DateOnly, "2006-01-02T15:04", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --date %q (use YYYY-MM-DD or YYYY-MM-DDTHH:MM)", s)
}

func newRebuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute the date index now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()
			n, err := app.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d day(s) of %v\n", n, app.Index.Types())
			return nil
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var (
		typ, status, slug, body, at string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a post or page",
		Long: `Add an item to the content store.

Examples:
  sitemapctl add "Hello World" --date 2024-03-15
  sitemapctl add "Launch" --type event --status draft --date 2024-04-01T09:30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := store.Post{
				Type:   typ,
				Status: status,
				Slug:   slug,
				Title:  args[0],
				Body:   body,
			}
			if at != "" {
				t, err := parseDate(at)
				if err != nil {
					return err
				}
				p.PublishedAt = t
			}
			if p.Slug == "" {
				p.Slug = slugify(p.Title)
			}

			app, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()
			if err := app.AddPost(cmd.Context(), &p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %d %q (%s)\n", p.Type, p.ID, p.Slug, p.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "post", "content type")
	cmd.Flags().StringVar(&status, "status", store.StatusPublish, "status: publish or draft")
	cmd.Flags().StringVar(&slug, "slug", "", "slug (default derived from the title)")
	cmd.Flags().StringVar(&body, "body", "", "Markdown body")
	cmd.Flags().StringVar(&at, "date", "", "publish date in UTC (default now)")
	return cmd
}

func newStatusCmd(opts *options, name, status string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: fmt.Sprintf("Set the status of an item to %q", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			app, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()
			p, err := app.SetStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d %q is now %s\n", p.Type, p.ID, p.Slug, p.Status)
			return nil
		},
	}
}

// slugify lowercases title and joins its words with dashes.
func slugify(title string) string {
	b := make([]rune, 0, len(title))
	dash := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b = append(b, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			b = append(b, r+'a'-'A')
			dash = false
		case !dash && len(b) > 0:
			b = append(b, '-')
			dash = true
		}
	}
	if dash {
		b = b[:len(b)-1]
	}
	return string(b)
}
