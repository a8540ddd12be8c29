package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newScheduleCmd(opts *options) *cobra.Command {
	var run bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List scheduled index updates",
		Long: `List the scheduled index updates, soonest first.

With --run, the updates that are due are run first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := opts.open()
			if err != nil {
				return err
			}
			defer done()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if run {
				n, err := app.Runner.RunDue(ctx, app.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Ran %d due task(s)\n", n)
			}

			tasks, err := app.Scheduler.Pending(ctx)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No scheduled updates")
				return nil
			}
			for _, t := range tasks {
				every := "once"
				if t.Recurring() {
					every = t.Recurrence
				}
				fmt.Fprintf(out, "  %-28s %s  %s\n", t.Name, t.RunAt.UTC().Format(time.RFC3339), every)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "run due updates first")
	return cmd
}
