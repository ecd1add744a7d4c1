package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/daterange"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/report"
	"github.com/YC815/my-accounting/internal/storage"
)

// ReportService answers the read-only views: dashboard, charts and exports.
type ReportService struct {
	store storage.Store
	loc   *time.Location
	now   func() time.Time
}

func NewReportService(store storage.Store, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, loc: loc, now: time.Now}
}

// WithClock replaces the time source.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Today is the current day in the ledger timezone.
func (s *ReportService) Today() core.Date {
	return core.Today(s.now(), s.loc)
}

// Dashboard is the all-time summary shown on the home page.
type Dashboard struct {
	Totals     core.Totals
	Balance    decimal.Decimal
	Categories []core.CategoryTotal
	Active     []core.CategoryRecord
	Today      core.Date
}

func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	snap, err := s.store.Snapshot(ctx, core.DateRange{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("read ledger: %w", err)
	}

	totals := core.SumTotals(snap)
	d := Dashboard{
		Totals:     totals,
		Balance:    totals.Balance(),
		Categories: core.CategoryTotals(snap.Categories, snap.Expenses),
		Active:     make([]core.CategoryRecord, 0, len(snap.Categories)),
		Today:      s.Today(),
	}
	for _, c := range snap.Categories {
		if c.Active {
			d.Active = append(d.Active, c)
		}
	}
	return d, nil
}

// ChartRange resolves report filters; no filter at all means this month.
func (s *ReportService) ChartRange(p daterange.Params) (core.DateRange, error) {
	if p.Empty() {
		p.Preset = daterange.PresetThisMonth
	}
	return daterange.Resolve(daterange.Report, s.Today(), p)
}

// Charts builds the three report series from one snapshot of the range.
func (s *ReportService) Charts(ctx context.Context, p daterange.Params) (report.Charts, core.DateRange, error) {
	rng, err := s.ChartRange(p)
	if err != nil {
		return report.Charts{}, core.DateRange{}, err
	}

	snap, err := s.store.Snapshot(ctx, rng)
	if err != nil {
		return report.Charts{}, rng, fmt.Errorf("read ledger: %w", err)
	}

	var charts report.Charts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		charts.Pie = report.PieSeries(core.CategoryTotals(snap.Categories, snap.Expenses))
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		charts.Bar = report.BarSeries(core.MonthTotals(snap.Expenses))
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		charts.Line = report.LineSeries(core.CumulativeSeries(snap.Expenses, snap.Repayments))
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.Charts{}, rng, err
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentReport).DebugContext(ctx, "Charts built",
		applog.FieldRangeStart, rng.Start.String(),
		applog.FieldRangeEnd, rng.End.String(),
		"expenses", len(snap.Expenses),
		"repayments", len(snap.Repayments))
	return charts, rng, nil
}

// Export is a prepared CSV download.
type Export struct {
	Kind       report.ExportKind
	Range      core.DateRange
	expenses   []core.Expense
	repayments []core.Repayment
}

// Filename is the attachment name.
func (e *Export) Filename() string {
	return e.Kind.Filename()
}

// Rows is the number of data rows the export will contain.
func (e *Export) Rows() int {
	switch e.Kind {
	case report.ExportExpenses:
		return len(e.expenses)
	case report.ExportRepayments:
		return len(e.repayments)
	default:
		return len(e.expenses) + len(e.repayments)
	}
}

func (e *Export) Render(w io.Writer) error {
	return report.WriteCSV(w, e.Kind, e.expenses, e.repayments)
}

// PrepareExport reads the records of an export. Unlike the charts, an
// export without filters covers the whole ledger.
func (s *ReportService) PrepareExport(ctx context.Context, kind string, p daterange.Params) (*Export, error) {
	k, err := report.ParseExportKind(kind)
	if err != nil {
		return nil, err
	}
	rng, err := daterange.Resolve(daterange.Report, s.Today(), p)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Snapshot(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	exp := &Export{Kind: k, Range: rng, expenses: snap.Expenses, repayments: snap.Repayments}
	fields := applog.NewFields().
		WithOperation(applog.OpExport).
		WithRange(rng.Start.String(), rng.End.String())
	fields["type"] = string(k)
	fields["rows"] = exp.Rows()
	applog.FromContext(ctx).WithComponent(applog.ComponentReport).InfoContext(ctx, "Export prepared", fields.ToSlice()...)
	return exp, nil
}
