package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YC815/my-accounting/internal/daterange"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  午餐  ", "午餐"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeInput(tt.in), "input %q", tt.in)
	}
}

func TestParseRangeParams(t *testing.T) {
	v := url.Values{
		"preset":     {" custom "},
		"start_date": {"2024-03-01"},
		"end_date":   {"2024-03-31"},
		"year":       {"2024"},
		"month":      {"3"},
	}
	assert.Equal(t, daterange.Params{
		Preset:    "custom",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Year:      "2024",
		Month:     "3",
	}, ParseRangeParams(v))
}

func TestParseExpenseQuery(t *testing.T) {
	v := url.Values{
		"category_name": {"food"},
		"search":        {" 便當 "},
		"min_amount":    {"10"},
		"page":          {"2"},
	}
	q := ParseExpenseQuery(v)
	assert.Equal(t, "food", q.CategoryName)
	assert.Equal(t, "便當", q.Search)
	assert.Equal(t, "10", q.MinAmount)
	assert.Equal(t, "", q.MaxAmount)
	assert.Equal(t, "2", q.Page)
}

func TestParseForms(t *testing.T) {
	v := url.Values{
		"category_id": {"c1"},
		"name":        {" 早餐 "},
		"amount":      {"85"},
		"description": {"盤點差額"},
		"date":        {"2024-03-15"},
	}

	e := ParseExpenseForm(v)
	assert.Equal(t, "c1", e.CategoryID)
	assert.Equal(t, "早餐", e.Name)
	assert.Equal(t, "85", e.Amount)
	assert.Equal(t, "2024-03-15", e.Date)

	r := ParseRepaymentForm(v)
	assert.Equal(t, "85", r.Amount)

	a := ParseAdjustmentForm(v)
	assert.Equal(t, "盤點差額", a.Description)
}

func TestPageURL(t *testing.T) {
	q := url.Values{
		"preset": {"this_month"},
		"search": {""},
		"page":   {"3"},
		"notice": {"deleted"},
	}
	assert.Equal(t, "/adjustments?page=4&preset=this_month", pageURL("/adjustments", q, 4))
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/expenses/x/edit", nil)
	r.SetPathValue("id", "not-a-uuid")
	_, ok := pathID(r)
	assert.False(t, ok)

	r.SetPathValue("id", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	id, ok := pathID(r)
	assert.True(t, ok)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", id.String())
}

func TestParseFormOrFail(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("amount=1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Nil(t, ParseFormOrFail(r))
	assert.Equal(t, "1", r.PostForm.Get("amount"))

	bad := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("amount=%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := ParseFormOrFail(bad)
	if assert.NotNil(t, resp) {
		w := httptest.NewRecorder()
		resp.Write(w)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestIsHTMX(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, isHTMX(r))
	r.Header.Set("HX-Request", "true")
	assert.True(t, isHTMX(r))
}
