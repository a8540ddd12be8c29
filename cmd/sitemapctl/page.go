package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xwp/sitemap-html/site"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the sitemap page and build the date index",
		Long: `Create the published page the sitemap is served under, unless a page
with the configured slug exists already, then build the date index and
schedule its updates.

Run this once per site.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()
			ctx := cmd.Context()

			if _, err := app.CreatePage(ctx); err != nil {
				printNotices(cmd, app)
				return err
			}
			if err := app.EnsureIndex(ctx); err != nil {
				return err
			}
			printNotices(cmd, app)
			return nil
		},
	}
}

func newNoticesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "notices",
		Short: "Show and clear pending operator messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()
			notices, err := app.Notices(cmd.Context())
			if err != nil {
				return err
			}
			if len(notices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notices")
			}
			for _, n := range notices {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func printNotices(cmd *cobra.Command, app *site.App) {
	notices, err := app.Notices(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		return
	}
	for _, n := range notices {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
}
