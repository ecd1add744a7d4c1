package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/YC815/my-accounting/internal/config"
	apphttp "github.com/YC815/my-accounting/internal/http"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		Long:  `Run the web app. The postgres backend migrates and seeds on startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := env.Config
			logger := env.Logger

			l, err := env.OpenLedger(ctx)
			if err != nil {
				return err
			}
			defer l.Close()

			srv, err := apphttp.NewServer(apphttp.Config{
				Addr:               ":" + cfg.Port,
				RateLimitPerMinute: cfg.RateLimitPerMinute,
				TrustedProxies:     cfg.TrustedProxies,
				Logger:             logger,
			}, l.Ledger, l.Reports, l.Backend.Store)
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}

			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16 // 64KB

			errCh := make(chan error, 1)
			go func() {
				logger.InfoContext(ctx, "Starting ledger server",
					"port", cfg.Port,
					"backend", cfg.DataBackend,
					"timezone", cfg.Timezone,
					"amqp_enabled", l.Backend.AMQPEnabled())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
				logger.InfoContext(ctx, "Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.ErrorContext(shutdownCtx, "Server shutdown error", applog.FieldError, err)
				return err
			}
			logger.InfoContext(shutdownCtx, "Server stopped gracefully")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and seed the categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := env.Config
			if cfg.DataBackend != config.BackendPostgres {
				return fmt.Errorf("migrate needs the postgres backend, have %q", cfg.DataBackend)
			}
			ctx := cmd.Context()
			repo, err := postgres.NewRepository(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxConns: 1})
			if err != nil {
				return err
			}
			defer repo.Close()
			env.Logger.InfoContext(ctx, "Migrations applied", applog.FieldOperation, applog.OpStartup)
			return nil
		},
	}
}
