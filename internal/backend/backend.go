// Package backend assembles the ledger store and the optional event
// publisher from the application config.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/YC815/my-accounting/internal/amqp"
	"github.com/YC815/my-accounting/internal/config"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/services"
	"github.com/YC815/my-accounting/internal/storage"
	"github.com/YC815/my-accounting/internal/storage/memory"
	"github.com/YC815/my-accounting/internal/storage/postgres"
)

// Type names a storage backend.
type Type string

const (
	Postgres Type = config.BackendPostgres
	Memory   Type = config.BackendMemory
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case Postgres, Memory:
		return true
	}
	return false
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{Postgres, Memory}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type        Type
	DatabaseURL string
	MaxConns    int32
	MinConns    int32

	// AMQP is optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:         t,
		DatabaseURL:  c.DatabaseURL,
		MaxConns:     int32(c.DBMaxConns),
		MinConns:     int32(c.DBMinConns),
		AMQPURL:      c.AMQPURL,
		AMQPExchange: c.AMQPExchange,
		AMQPQueue:    c.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == Postgres && c.DatabaseURL == "" {
		return errors.New("database url is required for postgres backend")
	}
	return nil
}

// Backend is an opened store plus the publisher mutations are announced on.
type Backend struct {
	Store storage.Store
	// Events is nil when AMQP is disabled or unreachable.
	Events services.EventPublisher

	amqp *amqp.Client
}

// AMQPEnabled reports whether ledger events are being published.
func (b *Backend) AMQPEnabled() bool {
	return b.amqp != nil
}

// Close releases the AMQP connection and the store.
func (b *Backend) Close() error {
	var errs []error
	if b.amqp != nil {
		if err := b.amqp.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Factory opens backends.
type Factory struct {
	logger    *applog.Logger
	dialAMQP  func(url, exchange, queue string) (*amqp.Client, error)
	openStore func(ctx context.Context, cfg Config) (storage.Store, error)
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	f := &Factory{
		logger:   logger.WithComponent(applog.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
	f.openStore = f.defaultOpenStore
	return f
}

// Open builds the store for cfg.Type and, when configured, an AMQP client.
// An unreachable broker is logged and the backend runs without events.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b := &Backend{Store: store}

	if cfg.AMQPURL != "" {
		client, err := f.dialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err)
		} else {
			b.amqp = client
			b.Events = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", cfg.Type.String(),
		"amqp_enabled", b.AMQPEnabled())
	return b, nil
}

func (f *Factory) defaultOpenStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch cfg.Type {
	case Postgres:
		repo, err := postgres.NewRepository(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return repo, nil
	case Memory:
		f.logger.WarnContext(ctx, "Using in-memory backend, records are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
