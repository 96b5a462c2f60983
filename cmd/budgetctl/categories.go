package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/dialog"
)

func categoriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage income and expense categories",
	}
	cmd.AddCommand(listCategoriesCmd(opts))
	cmd.AddCommand(createCategoryCmd(opts))
	cmd.AddCommand(deleteCategoryCmd(opts))
	return cmd
}

func parseTypes(value string) ([]core.TransactionType, error) {
	if value == "" {
		return []core.TransactionType{core.Income, core.Expense}, nil
	}
	t, err := core.ParseTransactionType(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --type %q: must be income or expense", value)
	}
	return []core.TransactionType{t}, nil
}

func listCategoriesCmd(opts *rootOptions) *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := parseTypes(typeFlag)
			if err != nil {
				return err
			}
			ctx := opts.userContext(cmd)
			out := cmd.OutOrStdout()

			var all []core.Category
			for _, t := range types {
				list, err := opts.app.categories.ListCategories(ctx, t)
				if err != nil {
					return fmt.Errorf("failed to list %s categories: %w", t, err)
				}
				all = append(all, list...)
			}
			if len(all) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'budgetctl categories create' to add one."))
				return nil
			}
			return printCategories(out, all)
		},
	}
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "only list income or expense categories")
	return cmd
}

func printCategories(out io.Writer, list []core.Category) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Type"),
		cli.HeaderStyle.Render("Icon"),
		cli.HeaderStyle.Render("Name"))
	fmt.Fprintf(w, "%s\t%s\t%s\n", strings.Repeat("-", 7), strings.Repeat("-", 4), strings.Repeat("-", 20))
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", cli.TypeStyle(c.Type.String()).Render(c.Type.String()), c.Icon, c.Name)
	}
	return w.Flush()
}

func createCategoryCmd(opts *rootOptions) *cobra.Command {
	var typeFlag, icon string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Long: `Create a category of the given type. The icon must be a single emoji.

Example:
  budgetctl categories create Groceries --type expense --icon 🛒`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseTransactionType(typeFlag)
			if err != nil {
				return fmt.Errorf("invalid --type %q: must be income or expense", typeFlag)
			}
			ctx := opts.userContext(cmd)

			d, err := dialog.NewCreateCategoryDialog(dialog.CreateCategoryConfig{
				Type: t,
				SuccessCallback: func(c core.Category) {
					_ = printCategories(cmd.OutOrStdout(), []core.Category{c})
				},
			}, opts.app.categories, dialog.Env{Notifier: opts.app.notifier})
			if err != nil {
				return err
			}
			d.Open()
			d.SetName(args[0])
			d.SelectEmoji(icon)

			res := d.Submit(ctx)
			if res.Ok() {
				return nil
			}
			if fieldErrs := d.FieldErrors(); len(fieldErrs) > 0 {
				fields := make([]string, 0, len(fieldErrs))
				for field := range fieldErrs {
					fields = append(fields, field)
				}
				sort.Strings(fields)
				for _, field := range fields {
					fmt.Fprintln(cmd.ErrOrStderr(), cli.ErrorStyle.Render(field+": "+fieldErrs.Message(field)))
				}
				return errors.New("invalid category")
			}
			if errors.Is(res.Err, core.ErrCategoryExists) {
				return fmt.Errorf("a %s category named %q already exists", t, strings.TrimSpace(args[0]))
			}
			return res.Err
		},
	}
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "income or expense (required)")
	cmd.Flags().StringVarP(&icon, "icon", "i", "", "single emoji shown next to the name (required)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func deleteCategoryCmd(opts *rootOptions) *cobra.Command {
	var (
		typeFlag string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseTransactionType(typeFlag)
			if err != nil {
				return fmt.Errorf("invalid --type %q: must be income or expense", typeFlag)
			}
			ctx := opts.userContext(cmd)

			c, err := opts.app.categories.GetCategory(ctx, strings.TrimSpace(args[0]), t)
			if err != nil {
				return fmt.Errorf("failed to find category: %w", err)
			}

			d, err := dialog.NewDeleteCategoryDialog(c, "delete", opts.app.categories, dialog.Env{Notifier: opts.app.notifier})
			if err != nil {
				return err
			}
			d.Open()

			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s %s? [y/N] ", c.Icon, c.Name)) {
				d.Cancel()
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Cancelled"))
				return nil
			}
			return d.Confirm(ctx).Err
		},
	}
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "income or expense (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
