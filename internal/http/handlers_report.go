package http

import (
	"fmt"
	"net/http"
	"net/url"

	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/report"
)

var exportLabels = map[report.ExportKind]string{
	report.ExportExpenses:   "支出",
	report.ExportRepayments: "還款",
	report.ExportCombined:   "支出＋還款",
}

// exportLinks carries the report's date filters over to each download.
func exportLinks(q url.Values) []exportLink {
	base := url.Values{}
	for _, k := range []string{"preset", "start_date", "end_date", "year", "month"} {
		if v := field(q, k); v != "" {
			base.Set(k, v)
		}
	}

	links := make([]exportLink, 0, len(report.ExportKinds))
	for _, kind := range report.ExportKinds {
		v := url.Values{}
		for k, vs := range base {
			v[k] = vs
		}
		v.Set("type", string(kind))
		links = append(links, exportLink{Label: exportLabels[kind], URL: "/reports/export?" + v.Encode()})
	}
	return links
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	charts, rng, err := s.reports.Charts(r.Context(), ParseRangeParams(q))
	if err != nil {
		s.fail(w, r, err, "/reports")
		return
	}

	s.render(w, r, http.StatusOK, pageReports, reportsPage{
		basePage: newBasePage(r, "報表", "reports"),
		Charts:   charts,
		Range:    rng,
		Filter:   newFilterView(r),
		Exports:  exportLinks(q),
	})
}

// handleReportData serves the chart series as JSON for client-side refreshes.
func (s *Server) handleReportData(w http.ResponseWriter, r *http.Request) {
	charts, rng, err := s.reports.Charts(r.Context(), ParseRangeParams(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, "/reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start":  rng.Start.String(),
		"end":    rng.End.String(),
		"charts": charts,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exp, err := s.reports.PrepareExport(r.Context(), field(q, "type"), ParseRangeParams(q))
	if err != nil {
		s.fail(w, r, err, "/reports")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename()))
	w.WriteHeader(http.StatusOK)
	if err := exp.Render(w); err != nil {
		// Headers already sent.
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export write failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
	}
}
