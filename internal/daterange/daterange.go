// Package daterange turns the date filters shared by listings, reports and
// exports into a concrete inclusive interval of days.
package daterange

import (
	"strconv"
	"strings"

	"github.com/YC815/my-accounting/internal/core"
)

// Context selects how open-ended presets are closed.
type Context int

const (
	// Listing pages end "this month" at today.
	Listing Context = iota
	// Report pages cover the whole current month.
	Report
)

// Preset names accepted in the "preset" query parameter.
const (
	PresetToday     = "today"
	PresetThisWeek  = "this_week"
	PresetThisMonth = "this_month"
	PresetLastMonth = "last_month"
	PresetCustom    = "custom"
)

// Presets lists the selectable presets in display order.
var Presets = []string{PresetToday, PresetThisWeek, PresetThisMonth, PresetLastMonth, PresetCustom}

// Params are the raw filter values as they arrive from a form or query string.
type Params struct {
	Preset    string
	StartDate string
	EndDate   string
	Year      string
	Month     string
}

// Empty reports whether no filter was given at all.
func (p Params) Empty() bool {
	return strings.TrimSpace(p.Preset) == "" &&
		strings.TrimSpace(p.StartDate) == "" &&
		strings.TrimSpace(p.EndDate) == "" &&
		strings.TrimSpace(p.Year) == "" &&
		strings.TrimSpace(p.Month) == ""
}

// Resolve returns the interval selected by p relative to today.
//
// A known preset wins. Otherwise, in the report context, a year and month
// select that calendar month. Anything else falls back to the explicit start
// and end dates, each of which may be left empty for an open bound.
func Resolve(ctx Context, today core.Date, p Params) (core.DateRange, error) {
	if r, ok := FromPreset(ctx, today, p.Preset); ok {
		return r, nil
	}

	if ctx == Report && (strings.TrimSpace(p.Year) != "" || strings.TrimSpace(p.Month) != "") {
		year, err := strconv.Atoi(strings.TrimSpace(p.Year))
		if err != nil || year < 1 || year > 9999 {
			return core.DateRange{}, core.Invalid("year", core.ErrInvalidMonth)
		}
		month, err := strconv.Atoi(strings.TrimSpace(p.Month))
		if err != nil {
			return core.DateRange{}, core.Invalid("month", core.ErrInvalidMonth)
		}
		r, err := MonthBounds(year, month)
		if err != nil {
			return core.DateRange{}, core.Invalid("month", err)
		}
		return r, nil
	}

	var r core.DateRange
	if s := strings.TrimSpace(p.StartDate); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return core.DateRange{}, core.Invalid("start_date", err)
		}
		r.Start = d
	}
	if s := strings.TrimSpace(p.EndDate); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return core.DateRange{}, core.Invalid("end_date", err)
		}
		r.End = d
	}
	return r, nil
}

// FromPreset resolves a named preset. ok is false for custom, empty and
// unknown names.
func FromPreset(ctx Context, today core.Date, preset string) (core.DateRange, bool) {
	switch strings.TrimSpace(preset) {
	case PresetToday:
		return core.DateRange{Start: today, End: today}, true
	case PresetThisWeek:
		// time.Weekday starts on Sunday; weeks here start on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		return core.DateRange{Start: today.AddDays(-offset), End: today}, true
	case PresetThisMonth:
		first := core.NewDate(today.Year(), today.Month(), 1)
		if ctx == Report {
			return core.DateRange{Start: first, End: lastDay(first)}, true
		}
		return core.DateRange{Start: first, End: today}, true
	case PresetLastMonth:
		end := core.NewDate(today.Year(), today.Month(), 1).AddDays(-1)
		return core.DateRange{Start: core.NewDate(end.Year(), end.Month(), 1), End: end}, true
	default:
		return core.DateRange{}, false
	}
}

// MonthBounds returns the first and last day of the given calendar month.
func MonthBounds(year, month int) (core.DateRange, error) {
	if month < 1 || month > 12 {
		return core.DateRange{}, core.ErrInvalidMonth
	}
	first := core.NewDate(year, month, 1)
	return core.DateRange{Start: first, End: lastDay(first)}, nil
}

func lastDay(first core.Date) core.Date {
	return core.Date{Time: first.AddDate(0, 1, 0)}.AddDays(-1)
}

// Label describes a preset for select boxes.
func Label(preset string) string {
	switch preset {
	case PresetToday:
		return "今天"
	case PresetThisWeek:
		return "本週"
	case PresetThisMonth:
		return "本月"
	case PresetLastMonth:
		return "上月"
	case PresetCustom:
		return "自訂"
	default:
		return preset
	}
}
