package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/session"
)

func eventsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the category audit trail recorded by the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			ctx := opts.userContext(cmd)
			events, err := opts.app.store.ListCategoryEvents(ctx, session.UserID(ctx), limit)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No events recorded yet."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("When"),
				cli.HeaderStyle.Render("Event"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Category"))
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n",
					ev.OccurredAt.Local().Format(time.DateTime),
					ev.Kind,
					ev.Category.Type,
					ev.Category.Icon, ev.Category.Name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events to show")
	return cmd
}
