// Package cli provides the initialization shared by the ledger commands.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/YC815/my-accounting/internal/backend"
	"github.com/YC815/my-accounting/internal/config"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/services"
)

// Env is everything a command needs once configuration is loaded.
type Env struct {
	Config   *config.Config
	Logger   *applog.Logger
	Location *time.Location
}

// Setup loads .env files, reads and validates the configuration and
// installs the configured logger as the default.
func Setup(envFiles ...string) (*Env, error) {
	config.LoadDotEnv(envFiles...)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger()
	applog.SetDefault(logger)
	return &Env{Config: cfg, Logger: logger, Location: loc}, nil
}

// Ledger is an opened backend with the services built on top of it.
type Ledger struct {
	Backend *backend.Backend
	Ledger  *services.LedgerService
	Reports *services.ReportService
}

func (l *Ledger) Close() error {
	return l.Backend.Close()
}

// OpenLedger opens the configured backend and wires the services to it.
func (e *Env) OpenLedger(ctx context.Context) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(e.Config)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(e.Logger).Open(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return &Ledger{
		Backend: b,
		Ledger:  services.NewLedgerService(b.Store, b.Events, e.Location),
		Reports: services.NewReportService(b.Store, e.Location),
	}, nil
}
