package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YC815/my-accounting/internal/daterange"
)

func exportCmd() *cobra.Command {
	var (
		kind   string
		output string
		params daterange.Params
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV export",
		Long: `Write expenses, repayments or both as CSV. Without date filters the
export covers the whole ledger.`,
		Example: `  ledger export --type combined --preset last_month -o march.csv
  ledger export --year 2024 --month 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, err := env.OpenLedger(ctx)
			if err != nil {
				return err
			}
			defer l.Close()

			exp, err := l.Reports.PrepareExport(ctx, kind, params)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				if err := exp.Render(cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				return nil
			}
			if err := writeExportFile(output, exp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ %d rows written to %s\n", exp.Rows(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "expenses", "expenses, repayments or combined")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&params.Preset, "preset", "", "today, this_week, this_month, last_month")
	cmd.Flags().StringVar(&params.StartDate, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.EndDate, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.Year, "year", "", "calendar year, used with --month")
	cmd.Flags().StringVar(&params.Month, "month", "", "calendar month 1-12, used with --year")
	return cmd
}

// writeExportFile renders exp into a new file at path. A failed close is an
// error like a failed write.
func writeExportFile(path string, exp interface{ Render(io.Writer) error }) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := exp.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
