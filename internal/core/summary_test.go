package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCategories() []CategoryRecord {
	out := make([]CategoryRecord, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, CategoryRecord{ID: uuid.New(), Name: c, Active: true})
	}
	return out
}

func TestSumTotalsEmpty(t *testing.T) {
	totals := SumTotals(Snapshot{})
	assert.True(t, totals.Expenses.IsZero())
	assert.True(t, totals.Repayments.IsZero())
	assert.True(t, totals.Adjustments.IsZero())
	assert.Equal(t, "0.00", FormatAmount(totals.Balance()))
}

func TestBalance(t *testing.T) {
	s := Snapshot{
		Expenses: []Expense{
			{Amount: dec("100.00")},
			{Amount: dec("50.50")},
		},
		Repayments:  []Repayment{{Amount: dec("30.00")}},
		Adjustments: []Adjustment{{Amount: dec("-20.50")}, {Amount: dec("5.00")}},
	}
	totals := SumTotals(s)
	assert.Equal(t, "150.50", FormatAmount(totals.Expenses))
	assert.Equal(t, "30.00", FormatAmount(totals.Repayments))
	assert.Equal(t, "-15.50", FormatAmount(totals.Adjustments))
	assert.Equal(t, "105.00", FormatAmount(totals.Balance()))
}

func TestOffsettingAdjustmentRestoresBalance(t *testing.T) {
	before := Snapshot{
		Expenses:   []Expense{{Amount: dec("80.00")}},
		Repayments: []Repayment{{Amount: dec("10.00")}},
	}
	base := SumTotals(before).Balance()

	after := before
	after.Expenses = append(append([]Expense(nil), before.Expenses...), Expense{Amount: dec("42.42")})
	after.Adjustments = []Adjustment{{Amount: dec("-42.42")}}

	assert.True(t, base.Equal(SumTotals(after).Balance()))
}

func TestCategoryTotalsZeroFilled(t *testing.T) {
	cats := testCategories()
	food, transport := cats[0], cats[2]

	totals := CategoryTotals(cats, []Expense{
		{CategoryID: food.ID, Amount: dec("10.00")},
		{CategoryID: food.ID, Amount: dec("5.25")},
		{CategoryID: transport.ID, Amount: dec("30.00")},
	})

	require.Len(t, totals, len(Categories))
	for i, ct := range totals {
		assert.Equal(t, Categories[i], ct.Category)
	}
	assert.Equal(t, "15.25", FormatAmount(totals[0].Total))
	assert.Equal(t, "0.00", FormatAmount(totals[1].Total))
	assert.Equal(t, "30.00", FormatAmount(totals[2].Total))
	assert.Equal(t, "0.00", FormatAmount(totals[3].Total))
	assert.Equal(t, "0.00", FormatAmount(totals[4].Total))
}

func TestCategoryTotalsSkipInactive(t *testing.T) {
	cats := testCategories()
	cats[1].Active = false

	totals := CategoryTotals(cats, []Expense{
		{CategoryID: cats[1].ID, Amount: dec("99.00")},
		{CategoryID: cats[3].ID, Amount: dec("1.00")},
	})

	require.Len(t, totals, len(Categories))
	assert.True(t, totals[1].Total.IsZero())
	assert.Equal(t, "1.00", FormatAmount(totals[3].Total))
}

func TestCategoryTotalsEqualExpenseSum(t *testing.T) {
	cats := testCategories()
	var expenses []Expense
	for i := 0; i < 20; i++ {
		expenses = append(expenses, Expense{
			CategoryID: cats[i%len(cats)].ID,
			Amount:     decimal.New(int64(i*137+1), -2),
		})
	}

	sum := decimal.Zero
	for _, ct := range CategoryTotals(cats, expenses) {
		sum = sum.Add(ct.Total)
	}
	assert.True(t, sum.Equal(SumTotals(Snapshot{Expenses: expenses}).Expenses))
}

func TestMonthTotals(t *testing.T) {
	months := MonthTotals([]Expense{
		{Date: NewDate(2024, 2, 10), Amount: dec("20.00")},
		{Date: NewDate(2023, 12, 31), Amount: dec("5.00")},
		{Date: NewDate(2024, 2, 1), Amount: dec("1.50")},
		{Date: NewDate(2024, 1, 15), Amount: dec("7.00")},
	})

	require.Len(t, months, 3)
	assert.Equal(t, "2023-12", months[0].Label())
	assert.Equal(t, "2024-01", months[1].Label())
	assert.Equal(t, "2024-02", months[2].Label())
	assert.Equal(t, "21.50", FormatAmount(months[2].Total))

	assert.Empty(t, MonthTotals(nil))
}

func TestCumulativeSeries(t *testing.T) {
	series := CumulativeSeries(
		[]Expense{{Date: NewDate(2024, 1, 1), Amount: dec("50.00")}},
		[]Repayment{{Date: NewDate(2024, 1, 2), Amount: dec("20.00")}},
	)

	require.Len(t, series, 2)
	assert.Equal(t, NewDate(2024, 1, 1), series[0].Date)
	assert.Equal(t, "50.00", FormatAmount(series[0].Total))
	assert.Equal(t, NewDate(2024, 1, 2), series[1].Date)
	assert.Equal(t, "30.00", FormatAmount(series[1].Total))
}

func TestCumulativeSeriesOrdering(t *testing.T) {
	series := CumulativeSeries(
		[]Expense{
			{Date: NewDate(2024, 3, 5), Amount: dec("10.00")},
			{Date: NewDate(2024, 3, 1), Amount: dec("40.00")},
		},
		[]Repayment{
			{Date: NewDate(2024, 3, 1), Amount: dec("15.00")},
		},
	)

	require.Len(t, series, 3)
	// same-day expense comes before the repayment
	assert.Equal(t, "40.00", FormatAmount(series[0].Total))
	assert.Equal(t, "25.00", FormatAmount(series[1].Total))
	assert.Equal(t, "35.00", FormatAmount(series[2].Total))

	final := SumTotals(Snapshot{
		Expenses:   []Expense{{Amount: dec("10.00")}, {Amount: dec("40.00")}},
		Repayments: []Repayment{{Amount: dec("15.00")}},
	})
	assert.True(t, series[2].Total.Equal(final.Expenses.Sub(final.Repayments)))

	assert.Empty(t, CumulativeSeries(nil, nil))
}
