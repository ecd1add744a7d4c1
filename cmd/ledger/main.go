// Command ledger runs the household ledger web app and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YC815/my-accounting/internal/cli"
)

var (
	envFiles []string
	env      *cli.Env

	rootCmd = &cobra.Command{
		Use:           "ledger",
		Short:         "Household ledger",
		Long:          `ledger records household expenses, repayments and balance adjustments and serves them as a small web app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			env, err = cli.Setup(envFiles...)
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default: .env)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(watchCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
