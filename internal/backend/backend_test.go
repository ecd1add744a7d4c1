package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/my-accounting/internal/amqp"
	"github.com/YC815/my-accounting/internal/config"
	"github.com/YC815/my-accounting/internal/storage"
	"github.com/YC815/my-accounting/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sqlite"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  config.BackendPostgres,
		DatabaseURL:  "postgres://localhost/ledger",
		DBMaxConns:   8,
		DBMinConns:   2,
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "ledger",
		AMQPQueue:    "ledger_events",
	})
	require.NoError(t, err)
	assert.Equal(t, Postgres, cfg.Type)
	assert.EqualValues(t, 8, cfg.MaxConns)
	assert.EqualValues(t, 2, cfg.MinConns)
	assert.Equal(t, "ledger", cfg.AMQPExchange)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Config{Type: Memory}.Validate())
	assert.Error(t, Config{Type: Postgres}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
	assert.True(t, Postgres.IsValid())
	assert.Len(t, Types(), 2)
}

func TestOpenMemoryWithoutAMQP(t *testing.T) {
	f := NewFactory(nil)
	f.dialAMQP = func(string, string, string) (*amqp.Client, error) {
		t.Fatal("dialed AMQP without a URL")
		return nil, nil
	}

	b, err := f.Open(context.Background(), Config{Type: Memory})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Store{}, b.Store)
	assert.Nil(t, b.Events)
	assert.False(t, b.AMQPEnabled())
	assert.NoError(t, b.Store.Ping(context.Background()))
}

func TestOpenContinuesWhenBrokerUnreachable(t *testing.T) {
	f := NewFactory(nil)
	f.dialAMQP = func(string, string, string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}

	b, err := f.Open(context.Background(), Config{Type: Memory, AMQPURL: "amqp://nowhere"})
	require.NoError(t, err)
	assert.Nil(t, b.Events)
	assert.NoError(t, b.Close())
}

func TestOpenStoreFailure(t *testing.T) {
	f := NewFactory(nil)
	f.openStore = func(context.Context, Config) (storage.Store, error) {
		return nil, errors.New("boom")
	}
	_, err := f.Open(context.Background(), Config{Type: Memory})
	assert.EqualError(t, err, "boom")
}
