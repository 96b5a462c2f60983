package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/core"
)

func currenciesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currencies",
		Short: "List currencies and show the selected one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := opts.userContext(cmd)
			settings, configured, err := opts.app.settings.Settings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, " \t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Code"),
				cli.HeaderStyle.Render("Label"),
				cli.HeaderStyle.Render("Example"))
			for _, c := range core.Currencies() {
				marker := " "
				if configured && c.Value == settings.Currency {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, c.Value, c.Label, c.FormatAmount(123456))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !configured {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("No currency selected yet, "+core.DefaultCurrency.Value+" is used."))
			}
			return nil
		},
	}
	cmd.AddCommand(setCurrencyCmd(opts))
	return cmd
}

func setCurrencyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <code>",
		Short: "Select the display currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.app.settings.UpdateCurrency(opts.userContext(cmd), args[0])
			if errors.Is(err, core.ErrUnknownCurrency) {
				return fmt.Errorf("unknown currency %q", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to save currency: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("✓ Currency set to "+c.Label))
			return nil
		},
	}
}
