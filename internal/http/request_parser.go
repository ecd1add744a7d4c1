// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for turning query strings and forms into
// service inputs. Values stay raw strings; the services validate them.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/YC815/my-accounting/internal/daterange"
	"github.com/YC815/my-accounting/internal/services"
)

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// field reads a sanitized value from query or form values.
func field(v url.Values, key string) string {
	return sanitizeInput(v.Get(key))
}

// ParseRangeParams extracts the shared date filter fields.
func ParseRangeParams(v url.Values) daterange.Params {
	return daterange.Params{
		Preset:    field(v, "preset"),
		StartDate: field(v, "start_date"),
		EndDate:   field(v, "end_date"),
		Year:      field(v, "year"),
		Month:     field(v, "month"),
	}
}

// ParseListQuery extracts the filters every listing accepts.
func ParseListQuery(v url.Values) services.ListQuery {
	return services.ListQuery{
		Range:     ParseRangeParams(v),
		MinAmount: field(v, "min_amount"),
		MaxAmount: field(v, "max_amount"),
		Page:      field(v, "page"),
	}
}

func ParseExpenseQuery(v url.Values) services.ExpenseQuery {
	return services.ExpenseQuery{
		ListQuery:    ParseListQuery(v),
		CategoryID:   field(v, "category_id"),
		CategoryName: field(v, "category_name"),
		Search:       field(v, "search"),
	}
}

func ParseAdjustmentQuery(v url.Values) services.AdjustmentQuery {
	return services.AdjustmentQuery{
		ListQuery: ParseListQuery(v),
		Search:    field(v, "search"),
	}
}

func ParseExpenseForm(v url.Values) services.ExpenseInput {
	return services.ExpenseInput{
		CategoryID: field(v, "category_id"),
		Name:       field(v, "name"),
		Amount:     field(v, "amount"),
		Date:       field(v, "date"),
	}
}

func ParseRepaymentForm(v url.Values) services.RepaymentInput {
	return services.RepaymentInput{
		Amount: field(v, "amount"),
		Date:   field(v, "date"),
	}
}

func ParseAdjustmentForm(v url.Values) services.AdjustmentInput {
	return services.AdjustmentInput{
		Amount:      field(v, "amount"),
		Description: field(v, "description"),
		Date:        field(v, "date"),
	}
}

// pathID reads the {id} wildcard. A malformed id can never match a record.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// pageURL links to another page of the same listing, keeping every filter.
func pageURL(path string, q url.Values, page int) string {
	next := url.Values{}
	for k, vs := range q {
		if k == "page" || k == "notice" {
			continue
		}
		for _, v := range vs {
			if v != "" {
				next.Add(k, v)
			}
		}
	}
	next.Set("page", strconv.Itoa(page))
	return path + "?" + next.Encode()
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("表單格式錯誤")
	}
	return nil
}
