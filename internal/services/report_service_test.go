package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/daterange"
	"github.com/YC815/my-accounting/internal/report"
	"github.com/YC815/my-accounting/internal/storage/memory"
)

func seededReports(t *testing.T) (*ReportService, *LedgerService) {
	t.Helper()
	store := memory.New()
	clock := func() time.Time { return fixedNow }
	ledger := NewLedgerService(store, nil, taipei).WithClock(clock)
	reports := NewReportService(store, taipei).WithClock(clock)

	ctx := context.Background()
	food := categoryID(t, ledger, core.CategoryFood)
	household := categoryID(t, ledger, core.CategoryHousehold)

	mustExpense := func(cat, name, amount, date string) {
		_, err := ledger.CreateExpense(ctx, ExpenseInput{CategoryID: cat, Name: name, Amount: amount, Date: date})
		require.NoError(t, err)
	}
	mustExpense(food, "早餐", "50", "2024-03-01")
	mustExpense(household, "洗衣精", "199", "2024-03-10")
	mustExpense(food, "晚餐", "300", "2024-02-20")

	_, err := ledger.CreateRepayment(ctx, RepaymentInput{Amount: "20", Date: "2024-03-02"})
	require.NoError(t, err)
	_, err = ledger.CreateAdjustment(ctx, AdjustmentInput{Amount: "-9", Description: "rounding", Date: "2024-03-03"})
	require.NoError(t, err)

	return reports, ledger
}

func TestDashboard(t *testing.T) {
	reports, ledger := seededReports(t)
	ctx := context.Background()

	d, err := reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "520.00", core.FormatAmount(d.Balance), "549 - 20 - 9")
	assert.Equal(t, "2024-03-15", d.Today.String())
	require.Len(t, d.Categories, len(core.Categories))
	assert.Equal(t, core.CategoryFood, d.Categories[0].Category)
	assert.Equal(t, "350.00", core.FormatAmount(d.Categories[0].Total))
	assert.True(t, d.Categories[1].Total.IsZero())
	assert.Len(t, d.Active, len(core.Categories))

	_, err = ledger.SetCategoryActive(ctx, "household", false)
	require.NoError(t, err)
	d, err = reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, d.Categories[3].Total.IsZero(), "inactive categories report zero")
	assert.Len(t, d.Active, len(core.Categories)-1)
	assert.Equal(t, "520.00", core.FormatAmount(d.Balance), "balance still counts every expense")
}

func TestChartsDefaultToWholeCurrentMonth(t *testing.T) {
	reports, _ := seededReports(t)

	charts, rng, err := reports.Charts(context.Background(), daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", rng.Start.String())
	assert.Equal(t, "2024-03-31", rng.End.String())

	assert.Equal(t, []string{"2024-03"}, charts.Bar.Labels)
	assert.Equal(t, []float64{249}, charts.Bar.Data)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-10"}, charts.Line.Labels)
	assert.Equal(t, []float64{50, 30, 229}, charts.Line.Data)
}

func TestChartsMatchSequentialBuild(t *testing.T) {
	reports, _ := seededReports(t)
	ctx := context.Background()
	p := daterange.Params{Year: "2024", Month: "2"}

	charts, rng, err := reports.Charts(ctx, p)
	require.NoError(t, err)

	snap, err := reports.store.Snapshot(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, report.BuildCharts(snap), charts)

	_, _, err = reports.Charts(ctx, daterange.Params{Year: "2024", Month: "13"})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestPrepareExport(t *testing.T) {
	reports, _ := seededReports(t)
	ctx := context.Background()

	exp, err := reports.PrepareExport(ctx, "", daterange.Params{})
	require.NoError(t, err)
	assert.Equal(t, "expenses.csv", exp.Filename())
	assert.Equal(t, 3, exp.Rows(), "no filter exports the whole ledger")

	exp, err = reports.PrepareExport(ctx, "combined", daterange.Params{Preset: daterange.PresetThisMonth})
	require.NoError(t, err)
	assert.Equal(t, 3, exp.Rows())

	var buf bytes.Buffer
	require.NoError(t, exp.Render(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "expense,2024-03-10,家庭日用品,洗衣精,199.00", strings.TrimSpace(lines[1]))
	assert.Equal(t, "repayment,2024-03-02,,,20.00", strings.TrimSpace(lines[3]))

	_, err = reports.PrepareExport(ctx, "pdf", daterange.Params{})
	assert.True(t, core.IsValidation(err))
}
