// Package postgres is the production ledger backend over a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/YC815/my-accounting/internal/core"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/storage"
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Repository)(nil)

// Connect opens and pings a pool for url.
func Connect(ctx context.Context, url string, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRepository migrates the schema, connects and seeds the categories.
func NewRepository(ctx context.Context, url string, pc PoolConfig) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, err
	}

	pool, err := Connect(ctx, url, pc)
	if err != nil {
		return nil, err
	}

	repo := &Repository{pool: pool}
	if err := repo.SeedCategories(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// NewFromPool wraps an existing pool without migrating.
func NewFromPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// inTx runs fn in a read-write transaction.
func (r *Repository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, fn)
}

// readTx runs fn in a read-only repeatable-read transaction so that
// several queries see the same data.
func (r *Repository) readTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}

// mapErr translates driver errors into storage sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505":
			return fmt.Errorf("%w: %s", storage.ErrConstraint, pgErr.ConstraintName)
		}
	}
	return err
}

func count(ctx context.Context, q querier, sql string, args []any) (int, error) {
	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}

func amountArg(d decimal.Decimal) string {
	return d.StringFixed(core.AmountScale)
}

func logMutation(ctx context.Context, op, kind string, id fmt.Stringer) {
	applog.FromContext(ctx).WithComponent(applog.ComponentStorage).DebugContext(ctx, "Ledger row written",
		applog.FieldOperation, op,
		applog.FieldRecordKind, kind,
		applog.FieldRecordID, id.String())
}
