package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/daterange"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/report"
	"github.com/YC815/my-accounting/internal/services"
	"github.com/YC815/my-accounting/internal/storage"
	appweb "github.com/YC815/my-accounting/web"
)

// Page templates. Each one is parsed together with layout.html so that every
// page can define its own "content" block.
const (
	pageHome           = "home.html"
	pageExpenses       = "expenses.html"
	pageExpenseEdit    = "expense_edit.html"
	pageRepayments     = "repayments.html"
	pageRepaymentEdit  = "repayment_edit.html"
	pageAdjustments    = "adjustments.html"
	pageAdjustmentEdit = "adjustment_edit.html"
	pageReports        = "reports.html"
	pageError          = "error.html"
)

var pageNames = []string{
	pageHome, pageExpenses, pageExpenseEdit, pageRepayments, pageRepaymentEdit,
	pageAdjustments, pageAdjustmentEdit, pageReports, pageError,
}

var templateFuncs = template.FuncMap{
	"amount": func(d decimal.Decimal) string { return core.FormatAmount(d) },
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).
			ParseFS(appweb.TemplatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes a page into a buffer so a template failure still yields a
// clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Template not loaded",
			applog.FieldComponent, applog.ComponentTemplate,
			"template", page)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender,
			applog.FieldErrorType, applog.ErrorTypeTemplate,
			"template", page)
		http.Error(w, "頁面產生失敗", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Page view models.
type (
	basePage struct {
		Title  string
		Nav    string
		Notice string
	}

	presetOption struct {
		Value string
		Label string
	}

	// filterView echoes the submitted filters back into the form.
	filterView struct {
		Preset     string
		StartDate  string
		EndDate    string
		Year       string
		Month      string
		MinAmount  string
		MaxAmount  string
		Search     string
		CategoryID string
		Presets    []presetOption
	}

	pagerView struct {
		Total      int
		Page       int
		TotalPages int
		PrevURL    string
		NextURL    string
	}

	// formView holds raw form values so a rejected edit can be shown again.
	formView struct {
		ID          string
		CategoryID  string
		Name        string
		Amount      string
		Description string
		Date        string
	}

	homePage struct {
		basePage
		Dashboard services.Dashboard
	}

	expensesPage struct {
		basePage
		Page       storage.Page[core.Expense]
		Filter     filterView
		Categories []core.CategoryRecord
		Pager      pagerView
	}

	repaymentsPage struct {
		basePage
		Page   storage.Page[core.Repayment]
		Filter filterView
		Pager  pagerView
	}

	adjustmentsPage struct {
		basePage
		Page   storage.Page[core.Adjustment]
		Filter filterView
		Pager  pagerView
	}

	editPage struct {
		basePage
		Form       formView
		Categories []core.CategoryRecord
		Error      string
	}

	exportLink struct {
		Label string
		URL   string
	}

	reportsPage struct {
		basePage
		Charts  report.Charts
		Range   core.DateRange
		Filter  filterView
		Exports []exportLink
	}

	errorPage struct {
		basePage
		Heading string
		Message string
		Back    string
	}
)

var presetOptions = func() []presetOption {
	out := make([]presetOption, 0, len(daterange.Presets))
	for _, p := range daterange.Presets {
		out = append(out, presetOption{Value: p, Label: daterange.Label(p)})
	}
	return out
}()

var notices = map[string]string{
	"created": "✅ 已新增",
	"updated": "✅ 已更新",
	"deleted": "✅ 已刪除",
}

func newBasePage(r *http.Request, title, nav string) basePage {
	return basePage{Title: title, Nav: nav, Notice: notices[r.URL.Query().Get("notice")]}
}

func newPager[T any](path string, r *http.Request, p storage.Page[T]) pagerView {
	v := pagerView{Total: p.Total, Page: p.Page, TotalPages: p.TotalPages}
	q := r.URL.Query()
	if p.HasPrev() {
		v.PrevURL = pageURL(path, q, p.Page-1)
	}
	if p.HasNext() {
		v.NextURL = pageURL(path, q, p.Page+1)
	}
	return v
}

func newFilterView(r *http.Request) filterView {
	q := r.URL.Query()
	return filterView{
		Preset:     field(q, "preset"),
		StartDate:  field(q, "start_date"),
		EndDate:    field(q, "end_date"),
		Year:       field(q, "year"),
		Month:      field(q, "month"),
		MinAmount:  field(q, "min_amount"),
		MaxAmount:  field(q, "max_amount"),
		Search:     field(q, "search"),
		CategoryID: field(q, "category_id"),
		Presets:    presetOptions,
	}
}

var fieldLabels = map[string]string{
	"category_id":   "類別",
	"category_name": "類別",
	"category":      "類別",
	"name":          "名稱",
	"amount":        "金額",
	"description":   "說明",
	"date":          "日期",
	"start_date":    "開始日期",
	"end_date":      "結束日期",
	"year":          "年份",
	"month":         "月份",
	"min_amount":    "最低金額",
	"max_amount":    "最高金額",
	"page":          "頁碼",
	"type":          "匯出類型",
}

var reasonMessages = []struct {
	err error
	msg string
}{
	{core.ErrMissingCategory, "請選擇類別"},
	{core.ErrUnknownCategory, "類別不存在"},
	{core.ErrEmptyName, "請填寫名稱"},
	{core.ErrEmptyDescription, "請填寫說明"},
	{core.ErrTextTooLong, "長度不可超過 200 字"},
	{core.ErrAmountOutOfRange, "金額超出範圍"},
	{core.ErrNonPositive, "金額必須大於 0"},
	{core.ErrZeroAmount, "金額不可為 0"},
	{core.ErrInvalidAmount, "金額格式錯誤"},
	{core.ErrInvalidDate, "日期格式錯誤（YYYY-MM-DD）"},
	{core.ErrInvalidMonth, "年月不正確"},
	{core.ErrInvalidPage, "頁碼不正確"},
	{report.ErrUnknownExport, "不支援的匯出類型"},
}

// validationMessage renders a ValidationError for people.
func validationMessage(err error) string {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return "輸入資料有誤"
	}
	label, ok := fieldLabels[verr.Field]
	if !ok {
		label = verr.Field
	}
	for _, m := range reasonMessages {
		if errors.Is(verr.Err, m.err) {
			return "❌ " + label + "：" + m.msg
		}
	}
	return "❌ " + label + "：輸入無效"
}
