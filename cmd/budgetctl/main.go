package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/session"
)

// app holds what every subcommand needs once the backend is open.
type app struct {
	store      backend.Store
	categories *services.CategoryService
	settings   *services.SettingsService
	notifier   *cli.ConsoleNotifier
	cleanup    func() error
}

type appFactory func(cmd *cobra.Command, verbose bool) (*app, error)

type rootOptions struct {
	user    string
	verbose bool
	open    appFactory
	app     *app
}

// userContext scopes ctx to the user selected with --user.
func (o *rootOptions) userContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return session.WithUserID(ctx, o.user)
}

func newRootCmd(open appFactory) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Manage budget categories and settings",
		Long:          `budgetctl manages income and expense categories and the display currency from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd, opts.verbose)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.app == nil || opts.app.cleanup == nil {
				return nil
			}
			return opts.app.cleanup()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.user, "user", "u", "local", "user whose categories are managed")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show progress messages and debug logs")

	cmd.AddCommand(categoriesCmd(opts))
	cmd.AddCommand(currenciesCmd(opts))
	cmd.AddCommand(eventsCmd(opts))
	return cmd
}

// openFromEnv builds the app from the same environment as the server. Logs
// go to stderr so command output stays clean.
func openFromEnv(cmd *cobra.Command, verbose bool) (*app, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !verbose {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI, os.Stderr)

	if f := cmd.Flags().Lookup("user"); f != nil && !f.Changed {
		_ = f.Value.Set(cfg.DefaultUserID)
	}

	res, err := cli.OpenBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		store:      res.Store,
		categories: services.NewCategoryService(res.Store, res.Publisher, logger),
		settings:   services.NewSettingsService(res.Store, logger),
		notifier:   cli.NewConsoleNotifier(cmd.OutOrStdout(), verbose),
		cleanup:    res.Cleanup,
	}, nil
}

func main() {
	ctx, stop := cli.SignalContext(context.Background(), log.New(log.Config{Output: os.Stderr}))
	err := newRootCmd(openFromEnv).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
