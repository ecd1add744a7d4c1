package daterange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YC815/my-accounting/internal/core"
)

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func TestPresets(t *testing.T) {
	tests := []struct {
		name   string
		ctx    Context
		today  core.Date
		preset string
		want   core.DateRange
	}{
		{"today", Listing, d(2024, 3, 15), PresetToday, core.DateRange{Start: d(2024, 3, 15), End: d(2024, 3, 15)}},
		{"this week on friday", Listing, d(2024, 3, 15), PresetThisWeek, core.DateRange{Start: d(2024, 3, 11), End: d(2024, 3, 15)}},
		{"this week on monday", Listing, d(2024, 3, 11), PresetThisWeek, core.DateRange{Start: d(2024, 3, 11), End: d(2024, 3, 11)}},
		{"this week on sunday", Listing, d(2024, 3, 17), PresetThisWeek, core.DateRange{Start: d(2024, 3, 11), End: d(2024, 3, 17)}},
		{"this week across months", Listing, d(2024, 3, 2), PresetThisWeek, core.DateRange{Start: d(2024, 2, 26), End: d(2024, 3, 2)}},
		{"this month listing", Listing, d(2024, 3, 15), PresetThisMonth, core.DateRange{Start: d(2024, 3, 1), End: d(2024, 3, 15)}},
		{"this month report", Report, d(2024, 3, 15), PresetThisMonth, core.DateRange{Start: d(2024, 3, 1), End: d(2024, 3, 31)}},
		{"this month report february leap", Report, d(2024, 2, 10), PresetThisMonth, core.DateRange{Start: d(2024, 2, 1), End: d(2024, 2, 29)}},
		{"last month leap year", Listing, d(2024, 3, 15), PresetLastMonth, core.DateRange{Start: d(2024, 2, 1), End: d(2024, 2, 29)}},
		{"last month non-leap", Listing, d(2023, 3, 31), PresetLastMonth, core.DateRange{Start: d(2023, 2, 1), End: d(2023, 2, 28)}},
		{"last month across years", Report, d(2024, 1, 15), PresetLastMonth, core.DateRange{Start: d(2023, 12, 1), End: d(2023, 12, 31)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.ctx, tt.today, Params{Preset: tt.preset})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveExplicitDates(t *testing.T) {
	today := d(2024, 3, 15)

	got, err := Resolve(Listing, today, Params{Preset: PresetCustom, StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, core.DateRange{Start: d(2024, 1, 1), End: d(2024, 1, 31)}, got)

	got, err = Resolve(Listing, today, Params{StartDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, d(2024, 1, 1), got.Start)
	assert.True(t, got.End.IsZero())

	got, err = Resolve(Listing, today, Params{Preset: "yesterday", EndDate: "2024-02-01"})
	require.NoError(t, err)
	assert.True(t, got.Start.IsZero())
	assert.Equal(t, d(2024, 2, 1), got.End)

	got, err = Resolve(Listing, today, Params{})
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
}

func TestResolvePresetWinsOverDates(t *testing.T) {
	got, err := Resolve(Listing, d(2024, 3, 15), Params{Preset: PresetToday, StartDate: "not-a-date"})
	require.NoError(t, err)
	assert.Equal(t, d(2024, 3, 15), got.Start)
}

func TestResolveInvalidDates(t *testing.T) {
	_, err := Resolve(Listing, d(2024, 3, 15), Params{StartDate: "2024-13-01"})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = Resolve(Listing, d(2024, 3, 15), Params{EndDate: "15/03/2024"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestResolveYearMonth(t *testing.T) {
	today := d(2024, 3, 15)

	got, err := Resolve(Report, today, Params{Year: "2023", Month: "12"})
	require.NoError(t, err)
	assert.Equal(t, core.DateRange{Start: d(2023, 12, 1), End: d(2023, 12, 31)}, got)

	got, err = Resolve(Report, today, Params{Year: "2023", Month: "4"})
	require.NoError(t, err)
	assert.Equal(t, d(2023, 4, 30), got.End)

	_, err = Resolve(Report, today, Params{Year: "2023", Month: "13"})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = Resolve(Report, today, Params{Month: "5"})
	assert.True(t, core.IsValidation(err))

	// listings ignore year/month
	got, err = Resolve(Listing, today, Params{Year: "2023", Month: "12"})
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
}

func TestMonthBounds(t *testing.T) {
	cases := map[int]int{1: 31, 2: 28, 4: 30, 6: 30, 7: 31, 9: 30, 11: 30, 12: 31}
	for month, last := range cases {
		r, err := MonthBounds(2023, month)
		require.NoError(t, err)
		assert.Equal(t, d(2023, month, 1), r.Start)
		assert.Equal(t, d(2023, month, last), r.End)
	}

	r, err := MonthBounds(2000, 2)
	require.NoError(t, err)
	assert.Equal(t, 29, r.End.Day())

	_, err = MonthBounds(2024, 0)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestParamsEmpty(t *testing.T) {
	assert.True(t, Params{}.Empty())
	assert.True(t, Params{Preset: " "}.Empty())
	assert.False(t, Params{EndDate: "2024-01-01"}.Empty())
}
