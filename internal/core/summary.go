package core

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is a consistent read of the ledger, optionally limited to a date range.
type Snapshot struct {
	Categories  []CategoryRecord
	Expenses    []Expense
	Repayments  []Repayment
	Adjustments []Adjustment
}

// Totals holds the per-kind sums behind the balance.
type Totals struct {
	Expenses    decimal.Decimal
	Repayments  decimal.Decimal
	Adjustments decimal.Decimal
}

// CategoryTotal represents an amount aggregated by category.
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
}

// MonthTotal is the expense sum of one calendar month.
type MonthTotal struct {
	Year  int
	Month int // 1-12
	Total decimal.Decimal
}

// SeriesPoint is one step of the cumulative balance series.
type SeriesPoint struct {
	Date  Date
	Total decimal.Decimal
}

// Balance is expenses minus repayments plus adjustments.
func (t Totals) Balance() decimal.Decimal {
	return t.Expenses.Sub(t.Repayments).Add(t.Adjustments)
}

// SumTotals adds up every record of the snapshot. Empty kinds sum to zero.
func SumTotals(s Snapshot) Totals {
	t := Totals{
		Expenses:    decimal.Zero,
		Repayments:  decimal.Zero,
		Adjustments: decimal.Zero,
	}
	for _, e := range s.Expenses {
		t.Expenses = t.Expenses.Add(e.Amount)
	}
	for _, r := range s.Repayments {
		t.Repayments = t.Repayments.Add(r.Amount)
	}
	for _, a := range s.Adjustments {
		t.Adjustments = t.Adjustments.Add(a.Amount)
	}
	return t
}

// Label formats the month as YYYY-MM.
func (m MonthTotal) Label() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// CategoryTotals sums expenses per category. The result always has one entry
// per category in Categories order; expenses of inactive categories are left
// out, so those categories report zero.
func CategoryTotals(categories []CategoryRecord, expenses []Expense) []CategoryTotal {
	active := make(map[uuid.UUID]Category, len(categories))
	for _, c := range categories {
		if c.Active {
			active[c.ID] = c.Name
		}
	}

	sums := make(map[Category]decimal.Decimal, len(Categories))
	for _, e := range expenses {
		name, ok := active[e.CategoryID]
		if !ok {
			continue
		}
		sums[name] = sums[name].Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(Categories))
	for _, c := range Categories {
		total, ok := sums[c]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, CategoryTotal{Category: c, Total: total})
	}
	return out
}

// MonthTotals sums expenses per calendar month, oldest first. Months without
// expenses are not reported.
func MonthTotals(expenses []Expense) []MonthTotal {
	type key struct{ year, month int }
	sums := make(map[key]decimal.Decimal)
	for _, e := range expenses {
		k := key{e.Date.Year(), e.Date.Month()}
		sums[k] = sums[k].Add(e.Amount)
	}

	out := make([]MonthTotal, 0, len(sums))
	for k, total := range sums {
		out = append(out, MonthTotal{Year: k.year, Month: k.month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// CumulativeSeries merges expenses (+) and repayments (-) into one list
// ordered by date and emits the running sum after each transaction.
// Same-day entries keep their input order, expenses before repayments.
func CumulativeSeries(expenses []Expense, repayments []Repayment) []SeriesPoint {
	type step struct {
		date   Date
		amount decimal.Decimal
	}
	steps := make([]step, 0, len(expenses)+len(repayments))
	for _, e := range expenses {
		steps = append(steps, step{date: e.Date, amount: e.Amount})
	}
	for _, r := range repayments {
		steps = append(steps, step{date: r.Date, amount: r.Amount.Neg()})
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].date.Before(steps[j].date.Time)
	})

	out := make([]SeriesPoint, 0, len(steps))
	running := decimal.Zero
	for _, s := range steps {
		running = running.Add(s.amount)
		out = append(out, SeriesPoint{Date: s.date, Total: running})
	}
	return out
}
