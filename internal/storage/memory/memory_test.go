package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/storage"
)

func categoryID(t *testing.T, s *Store, name core.Category) uuid.UUID {
	t.Helper()
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %s not seeded", name)
	return uuid.Nil
}

func newExpense(catID uuid.UUID, name, amount string, date core.Date, created time.Time) core.Expense {
	return core.Expense{
		ID:         uuid.New(),
		CategoryID: catID,
		Name:       name,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestSeededCategories(t *testing.T) {
	s := New()
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, len(core.Categories))
	for i, c := range cats {
		assert.Equal(t, core.Categories[i], c.Name)
		assert.True(t, c.Active)
	}
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	food := categoryID(t, s, core.CategoryFood)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	in := newExpense(food, "午餐", "120.50", core.NewDate(2024, 5, 1), now)
	_, err := s.CreateExpense(ctx, in)
	require.NoError(t, err)

	got, err := s.GetExpense(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Date, got.Date)
	assert.Equal(t, core.CategoryFood, got.Category)
	assert.Equal(t, "120.50", core.FormatAmount(got.Amount))
	assert.True(t, in.Amount.Equal(got.Amount))
}

func TestCreateExpenseUnknownCategory(t *testing.T) {
	s := New()
	_, err := s.CreateExpense(context.Background(), newExpense(uuid.New(), "x", "1", core.NewDate(2024, 1, 1), time.Now()))
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	food := categoryID(t, s, core.CategoryFood)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 120; i++ {
		e := newExpense(food, "item", "1.00", core.NewDate(2024, 1, 1).AddDays(i%30), base.Add(time.Duration(i)*time.Minute))
		_, err := s.CreateExpense(ctx, e)
		require.NoError(t, err)
	}

	p1, err := s.ListExpenses(ctx, storage.ExpenseFilter{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 120, p1.Total)
	assert.Equal(t, 3, p1.TotalPages)
	assert.Len(t, p1.Items, 50)
	assert.False(t, p1.HasPrev())
	assert.True(t, p1.HasNext())

	p3, err := s.ListExpenses(ctx, storage.ExpenseFilter{Page: 3})
	require.NoError(t, err)
	assert.Len(t, p3.Items, 20)
	assert.False(t, p3.HasNext())

	p4, err := s.ListExpenses(ctx, storage.ExpenseFilter{Page: 4})
	require.NoError(t, err)
	assert.Empty(t, p4.Items)
	assert.Equal(t, 120, p4.Total)

	// date desc, then created desc across the whole listing
	seen := append(append(append([]core.Expense{}, p1.Items...), mustList(t, s, 2)...), p3.Items...)
	for i := 1; i < len(seen); i++ {
		prev, cur := seen[i-1], seen[i]
		if prev.Date.Equal(cur.Date.Time) {
			assert.True(t, prev.CreatedAt.After(cur.CreatedAt))
		} else {
			assert.True(t, prev.Date.After(cur.Date.Time))
		}
	}
}

func TestPageFarPastTheEnd(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 3; i++ {
		_, err := s.CreateRepayment(ctx, core.Repayment{ID: uuid.New(), Amount: decimal.NewFromInt(10), Date: core.NewDate(2024, 1, 1)})
		require.NoError(t, err)
	}

	for _, page := range []int{288230376151711745, math.MaxInt} {
		p, err := s.ListRepayments(ctx, storage.RepaymentFilter{Page: page})
		require.NoError(t, err, page)
		assert.Empty(t, p.Items, page)
		assert.Equal(t, 3, p.Total)
		assert.False(t, p.HasNext())
	}
}

func mustList(t *testing.T, s *Store, page int) []core.Expense {
	t.Helper()
	p, err := s.ListExpenses(context.Background(), storage.ExpenseFilter{Page: page})
	require.NoError(t, err)
	return p.Items
}

func TestExpenseFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	food := categoryID(t, s, core.CategoryFood)
	transport := categoryID(t, s, core.CategoryTransport)
	now := time.Now()

	for _, e := range []core.Expense{
		newExpense(food, "早餐 Sandwich", "45.00", core.NewDate(2024, 3, 1), now),
		newExpense(food, "晚餐", "200.00", core.NewDate(2024, 3, 10), now),
		newExpense(transport, "捷運 sandwich card", "1280.00", core.NewDate(2024, 3, 20), now),
	} {
		_, err := s.CreateExpense(ctx, e)
		require.NoError(t, err)
	}

	list := func(f storage.ExpenseFilter) []core.Expense {
		p, err := s.ListExpenses(ctx, f)
		require.NoError(t, err)
		return p.Items
	}

	assert.Len(t, list(storage.ExpenseFilter{CategoryID: food}), 2)
	assert.Len(t, list(storage.ExpenseFilter{Category: core.CategoryTransport}), 1)
	assert.Len(t, list(storage.ExpenseFilter{Search: "SANDWICH"}), 2)
	assert.Len(t, list(storage.ExpenseFilter{Range: core.DateRange{Start: core.NewDate(2024, 3, 10)}}), 2)
	assert.Len(t, list(storage.ExpenseFilter{Range: core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 10)}}), 2)
	assert.Len(t, list(storage.ExpenseFilter{
		MinAmount: decimal.NewNullDecimal(decimal.RequireFromString("45.00")),
		MaxAmount: decimal.NewNullDecimal(decimal.RequireFromString("200.00")),
	}), 2)
	assert.Empty(t, list(storage.ExpenseFilter{CategoryID: food, Search: "card"}))
}

func TestDeleteMissing(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateRepayment(ctx, core.Repayment{
		ID:     uuid.New(),
		Amount: decimal.NewFromInt(300),
		Date:   core.NewDate(2024, 2, 2),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteRepayment(ctx, uuid.New()), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, uuid.New()), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteAdjustment(ctx, uuid.New()), storage.ErrNotFound)

	p, err := s.ListRepayments(ctx, storage.RepaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Total)
}

func TestUpdateAdjustment(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	a := core.Adjustment{
		ID:          uuid.New(),
		Amount:      decimal.RequireFromString("-10.00"),
		Description: "rounding",
		Date:        core.NewDate(2024, 1, 1),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	_, err := s.CreateAdjustment(ctx, a)
	require.NoError(t, err)

	a.Amount = decimal.RequireFromString("15.00")
	a.Description = "bank fee refund"
	a.CreatedAt = time.Time{}
	a.UpdatedAt = created.Add(time.Hour)
	updated, err := s.UpdateAdjustment(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, "bank fee refund", updated.Description)

	missing := a
	missing.ID = uuid.New()
	_, err = s.UpdateAdjustment(ctx, missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	p, err := s.ListAdjustments(ctx, storage.AdjustmentFilter{Search: "FEE"})
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "15.00", core.FormatAmount(p.Items[0].Amount))
}

func TestSnapshotRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	food := categoryID(t, s, core.CategoryFood)
	now := time.Now()

	for _, e := range []core.Expense{
		newExpense(food, "c", "3.00", core.NewDate(2024, 3, 3), now),
		newExpense(food, "a", "1.00", core.NewDate(2024, 3, 1), now),
		newExpense(food, "out", "9.00", core.NewDate(2024, 4, 1), now),
	} {
		_, err := s.CreateExpense(ctx, e)
		require.NoError(t, err)
	}

	snap, err := s.Snapshot(ctx, core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)})
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 2)
	assert.Equal(t, "a", snap.Expenses[0].Name)
	assert.Equal(t, "c", snap.Expenses[1].Name)
	assert.Len(t, snap.Categories, 5)
	assert.Empty(t, snap.Repayments)
}

func TestSetCategoryActive(t *testing.T) {
	s := New()
	rec, err := s.SetCategoryActive(context.Background(), core.CategoryHousehold, false)
	require.NoError(t, err)
	assert.False(t, rec.Active)

	_, err = s.SetCategoryActive(context.Background(), core.Category("nope"), true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
