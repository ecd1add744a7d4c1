package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YC815/my-accounting/internal/core"
)

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "List categories or switch them on and off",
		Long: `The five categories are fixed. A disabled category keeps its history but is
no longer offered for new expenses or counted on the dashboard.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(setCategoryActiveCmd("enable", true))
	cmd.AddCommand(setCategoryActiveCmd("disable", false))
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, err := env.OpenLedger(ctx)
			if err != nil {
				return err
			}
			defer l.Close()

			cats, err := l.Ledger.Categories(ctx)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "NAME\tLABEL\tACTIVE")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%t\n", c.Name, c.Label(), c.Active)
			}
			return nil
		},
	}
}

func setCategoryActiveCmd(use string, active bool) *cobra.Command {
	names := make([]string, 0, len(core.Categories))
	for _, c := range core.Categories {
		names = append(names, string(c))
	}

	return &cobra.Command{
		Use:       use + " <name>",
		Short:     fmt.Sprintf("Mark a category as active=%t", active),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := env.OpenLedger(ctx)
			if err != nil {
				return err
			}
			defer l.Close()

			rec, err := l.Ledger.SetCategoryActive(ctx, args[0], active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s) active=%t\n", rec.Name, rec.Label(), rec.Active)
			return nil
		},
	}
}
