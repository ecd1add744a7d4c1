//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/storage"
)

// Integration tests need a disposable database; they empty the ledger tables.
// Run with: DATABASE_URL=postgres://... go test -tags=integration ./internal/storage/postgres

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	repo, err := NewRepository(ctx, url, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	_, err = repo.pool.Exec(ctx, `TRUNCATE expenses, repayments, adjustments`)
	require.NoError(t, err)
	_, err = repo.pool.Exec(ctx, `UPDATE categories SET active = TRUE`)
	require.NoError(t, err)
	return repo
}

func seededCategory(t *testing.T, repo *Repository, name core.Category) uuid.UUID {
	t.Helper()
	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %s not seeded", name)
	return uuid.Nil
}

func stamp(i int) time.Time {
	return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second)
}

func TestIntegration_ExpenseRoundTrip(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	transport := seededCategory(t, repo, core.CategoryTransport)

	in := core.Expense{
		ID:         uuid.New(),
		CategoryID: transport,
		Name:       "捷運, 月票",
		Amount:     decimal.RequireFromString("1280.5"),
		Date:       core.NewDate(2024, 3, 10),
		CreatedAt:  stamp(0),
		UpdatedAt:  stamp(0),
	}
	created, err := repo.CreateExpense(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryTransport, created.Category)

	got, err := repo.GetExpense(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, "1280.50", core.FormatAmount(got.Amount))
	assert.Equal(t, "2024-03-10", got.Date.String())
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt))

	got.Name = "公車"
	got.Amount = decimal.RequireFromString("15")
	got.UpdatedAt = stamp(1)
	updated, err := repo.UpdateExpense(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "公車", updated.Name)
	assert.Equal(t, "15.00", core.FormatAmount(updated.Amount))

	require.NoError(t, repo.DeleteExpense(ctx, in.ID))
	_, err = repo.GetExpense(ctx, in.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteExpense(ctx, in.ID), storage.ErrNotFound)
}

func TestIntegration_FailedInsertLeavesNoRow(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	_, err := repo.CreateExpense(ctx, core.Expense{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Name:       "孤兒",
		Amount:     decimal.NewFromInt(1),
		Date:       core.NewDate(2024, 3, 1),
		CreatedAt:  stamp(0),
		UpdatedAt:  stamp(0),
	})
	assert.ErrorIs(t, err, storage.ErrConstraint)

	page, err := repo.ListExpenses(ctx, storage.ExpenseFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	id := uuid.New()
	err = repo.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO repayments(id, amount, date, created_at, updated_at) VALUES($1, $2, $3, $4, $4)`,
			id, "10.00", core.NewDate(2024, 3, 1).Time, stamp(0))
		require.NoError(t, err)
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")
	_, err = repo.GetRepayment(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SeedIsIdempotent(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	_, err := repo.SetCategoryActive(ctx, core.CategoryHousehold, false)
	require.NoError(t, err)

	require.NoError(t, repo.SeedCategories(ctx))
	require.NoError(t, repo.SeedCategories(ctx))

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(core.Categories))
	for _, c := range cats {
		assert.Equal(t, c.Name != core.CategoryHousehold, c.Active, "reseeding keeps %s as it was", c.Name)
	}
}

func TestIntegration_Pagination(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		_, err := repo.CreateRepayment(ctx, core.Repayment{
			ID:        uuid.New(),
			Amount:    decimal.NewFromInt(int64(i + 1)),
			Date:      core.NewDate(2024, 1, 1).AddDays(i % 30),
			CreatedAt: stamp(i),
			UpdatedAt: stamp(i),
		})
		require.NoError(t, err)
	}

	var seen []core.Repayment
	for page := 1; page <= 3; page++ {
		p, err := repo.ListRepayments(ctx, storage.RepaymentFilter{Page: page})
		require.NoError(t, err)
		assert.Equal(t, 120, p.Total)
		assert.Equal(t, 3, p.TotalPages)
		seen = append(seen, p.Items...)
	}
	assert.Len(t, seen, 120)
	for i := 1; i < len(seen); i++ {
		prev, cur := seen[i-1], seen[i]
		if prev.Date.Equal(cur.Date.Time) {
			assert.True(t, prev.CreatedAt.After(cur.CreatedAt), "row %d", i)
		} else {
			assert.True(t, prev.Date.After(cur.Date.Time), "row %d", i)
		}
	}

	for _, page := range []int{4, 288230376151711745} {
		p, err := repo.ListRepayments(ctx, storage.RepaymentFilter{Page: page})
		require.NoError(t, err, fmt.Sprint(page))
		assert.Empty(t, p.Items)
		assert.Equal(t, 120, p.Total)
	}

	filtered, err := repo.ListRepayments(ctx, storage.RepaymentFilter{
		MinAmount: decimal.NewNullDecimal(decimal.RequireFromString("119.5")),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Total)
}

func TestIntegration_SnapshotOldestFirst(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	for i, day := range []int{20, 5, 12} {
		_, err := repo.CreateAdjustment(ctx, core.Adjustment{
			ID:          uuid.New(),
			Amount:      decimal.NewFromInt(-3),
			Description: fmt.Sprintf("day %d", day),
			Date:        core.NewDate(2024, 2, day),
			CreatedAt:   stamp(i),
			UpdatedAt:   stamp(i),
		})
		require.NoError(t, err)
	}

	snap, err := repo.Snapshot(ctx, core.DateRange{Start: core.NewDate(2024, 2, 6)})
	require.NoError(t, err)
	assert.Len(t, snap.Categories, len(core.Categories))
	require.Len(t, snap.Adjustments, 2)
	assert.Equal(t, "2024-02-12", snap.Adjustments[0].Date.String())
	assert.Equal(t, "2024-02-20", snap.Adjustments[1].Date.String())
}
