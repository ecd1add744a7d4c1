// Package report turns ledger aggregations into chart payloads and CSV exports.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/YC815/my-accounting/internal/core"
)

// Series is one chart dataset: parallel labels and values.
type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Charts holds the three report charts.
type Charts struct {
	Pie  Series `json:"pie"`
	Bar  Series `json:"bar"`
	Line Series `json:"line"`
}

func newSeries(n int) Series {
	return Series{Labels: make([]string, 0, n), Data: make([]float64, 0, n)}
}

// PieSeries renders category totals, labelled by category label.
func PieSeries(totals []core.CategoryTotal) Series {
	s := newSeries(len(totals))
	for _, t := range totals {
		s.Labels = append(s.Labels, t.Category.Label())
		s.Data = append(s.Data, t.Total.InexactFloat64())
	}
	return s
}

// BarSeries renders monthly totals, labelled YYYY-MM.
func BarSeries(months []core.MonthTotal) Series {
	s := newSeries(len(months))
	for _, m := range months {
		s.Labels = append(s.Labels, m.Label())
		s.Data = append(s.Data, m.Total.InexactFloat64())
	}
	return s
}

// LineSeries renders the cumulative balance, labelled YYYY-MM-DD.
func LineSeries(points []core.SeriesPoint) Series {
	s := newSeries(len(points))
	for _, p := range points {
		s.Labels = append(s.Labels, p.Date.String())
		s.Data = append(s.Data, p.Total.InexactFloat64())
	}
	return s
}

// BuildCharts computes all three charts from one snapshot sequentially.
func BuildCharts(snap core.Snapshot) Charts {
	return Charts{
		Pie:  PieSeries(core.CategoryTotals(snap.Categories, snap.Expenses)),
		Bar:  BarSeries(core.MonthTotals(snap.Expenses)),
		Line: LineSeries(core.CumulativeSeries(snap.Expenses, snap.Repayments)),
	}
}

// ExportKind selects which records a CSV export contains.
type ExportKind string

const (
	ExportExpenses   ExportKind = "expenses"
	ExportRepayments ExportKind = "repayments"
	ExportCombined   ExportKind = "combined"
)

// ErrUnknownExport is returned for an export type outside ExportKinds.
var ErrUnknownExport = errors.New("unknown export type")

// ExportKinds lists the accepted export types.
var ExportKinds = []ExportKind{ExportExpenses, ExportRepayments, ExportCombined}

// ParseExportKind defaults to expenses when s is empty.
func ParseExportKind(s string) (ExportKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ExportExpenses, nil
	}
	for _, k := range ExportKinds {
		if ExportKind(s) == k {
			return k, nil
		}
	}
	return "", core.Invalid("type", ErrUnknownExport)
}

// Filename is the attachment name of an export.
func (k ExportKind) Filename() string {
	return string(k) + ".csv"
}

// Row tags of a combined export.
const (
	tagExpense   = "expense"
	tagRepayment = "repayment"
)

var (
	expenseHeader   = []string{"日期", "類別", "名稱", "金額"}
	repaymentHeader = []string{"日期", "金額"}
	combinedHeader  = []string{"類型", "日期", "類別", "名稱", "金額"}
)

// utf8BOM lets spreadsheet software detect the encoding.
const utf8BOM = "\ufeff"

// WriteCSV writes an export of the given kind. Rows are ordered date desc,
// newest entry first on the same day; the input slices are not modified.
func WriteCSV(w io.Writer, kind ExportKind, expenses []core.Expense, repayments []core.Repayment) error {
	if !slices.Contains(ExportKinds, kind) {
		return core.Invalid("type", ErrUnknownExport)
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	expenses = sortedExpenses(expenses)
	repayments = sortedRepayments(repayments)

	cw := csv.NewWriter(w)
	switch kind {
	case ExportExpenses:
		_ = cw.Write(expenseHeader)
		for _, e := range expenses {
			_ = cw.Write([]string{e.Date.String(), e.Category.Label(), e.Name, core.FormatAmount(e.Amount)})
		}
	case ExportRepayments:
		_ = cw.Write(repaymentHeader)
		for _, r := range repayments {
			_ = cw.Write([]string{r.Date.String(), core.FormatAmount(r.Amount)})
		}
	case ExportCombined:
		_ = cw.Write(combinedHeader)
		for _, e := range expenses {
			_ = cw.Write([]string{tagExpense, e.Date.String(), e.Category.Label(), e.Name, core.FormatAmount(e.Amount)})
		}
		for _, r := range repayments {
			_ = cw.Write([]string{tagRepayment, r.Date.String(), "", "", core.FormatAmount(r.Amount)})
		}
	}

	// csv.Writer keeps the first write error until Flush.
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func sortedExpenses(in []core.Expense) []core.Expense {
	out := append([]core.Expense(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func sortedRepayments(in []core.Repayment) []core.Repayment {
	out := append([]core.Repayment(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
