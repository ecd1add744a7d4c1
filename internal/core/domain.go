package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTextLength is the column width of expense names and adjustment descriptions.
const MaxTextLength = 200

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day stored as UTC midnight.
	Date struct {
		time.Time
	}

	// DateRange is an inclusive interval of days. A zero bound is open.
	DateRange struct {
		Start Date
		End   Date
	}

	Expense struct {
		ID         uuid.UUID
		CategoryID uuid.UUID
		Category   Category // resolved from CategoryID on read
		Name       string
		Amount     decimal.Decimal
		Date       Date
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Repayment struct {
		ID        uuid.UUID
		Amount    decimal.Decimal
		Date      Date
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Adjustment is a manual balance correction, positive or negative.
	Adjustment struct {
		ID          uuid.UUID
		Amount      decimal.Decimal
		Description string
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrNonPositive      = errors.New("amount must be greater than zero")
	ErrZeroAmount       = errors.New("amount cannot be zero")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrTextTooLong      = errors.New("text too long (max 200 characters)")
	ErrMissingCategory  = errors.New("missing category")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidPage      = errors.New("invalid page")
	ErrInvalidMonth     = errors.New("invalid month")
)

// ValidationError ties a rejected input field to the reason it was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the calendar day of now as seen in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Contains reports whether d falls inside the range. Open bounds match everything.
func (r DateRange) Contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start.Time) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End.Time) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func validateText(field, s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return Invalid(field, empty)
	}
	if utf8.RuneCountInString(s) > MaxTextLength {
		return Invalid(field, ErrTextTooLong)
	}
	return nil
}

func (e Expense) Validate() error {
	if e.CategoryID == uuid.Nil {
		return Invalid("category_id", ErrMissingCategory)
	}
	if err := validateText("name", e.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount, true); err != nil {
		return Invalid("amount", err)
	}
	if err := e.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}

func (r Repayment) Validate() error {
	if err := ValidateAmount(r.Amount, true); err != nil {
		return Invalid("amount", err)
	}
	if err := r.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}

func (a Adjustment) Validate() error {
	if err := validateText("description", a.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := ValidateAmount(a.Amount, false); err != nil {
		return Invalid("amount", err)
	}
	if err := a.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}
