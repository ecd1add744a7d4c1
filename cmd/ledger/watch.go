package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YC815/my-accounting/internal/amqp"
	applog "github.com/YC815/my-accounting/internal/log"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print ledger events as they are published",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := env.Config
			if cfg.AMQPURL == "" {
				return errors.New("watch needs AMQP_URL")
			}

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("connect amqp: %w", err)
			}
			defer client.Close()

			ctx := cmd.Context()
			logger := env.Logger.WithComponent(applog.ComponentAMQP)
			logger.InfoContext(ctx, "Watching ledger events",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)

			out := cmd.OutOrStdout()
			err = client.ConsumeLedgerEvents(ctx, func(e *amqp.LedgerEvent) error {
				_, err := fmt.Fprintf(out, "%s\t%-16s\t%s\t%s\t%s\n",
					e.At.In(env.Location).Format("2006-01-02 15:04:05"),
					e.RoutingKey(), e.ID, e.Date, e.Amount)
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
