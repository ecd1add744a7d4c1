// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals with two fractional digits, matching the
// NUMERIC(10,2) columns of the ledger tables.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits kept for every amount.
const AmountScale = 2

// maxAmount is the exclusive bound of NUMERIC(10,2).
var maxAmount = decimal.New(1, 8)

// ParseAmount converts a decimal string into an amount rounded half-up to
// two places. Signs are accepted; callers decide whether negatives are allowed.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("-5")     -> -5.00
//	ParseAmount("1,000")  -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// decimal also accepts exponents; a form field never should.
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(AmountScale)
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return d, nil
}

// ParseAmountBound parses a filter bound exactly as written. Unlike
// ParseAmount it neither rounds nor limits the magnitude.
func ParseAmountBound(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidateAmount checks an already parsed amount. Positive-only kinds
// (expenses, repayments) pass positive=true; adjustments only reject zero.
func ValidateAmount(d decimal.Decimal, positive bool) error {
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return ErrAmountOutOfRange
	}
	if !d.Equal(d.Round(AmountScale)) {
		return ErrInvalidAmount
	}
	if positive && !d.IsPositive() {
		return ErrNonPositive
	}
	if d.IsZero() {
		return ErrZeroAmount
	}
	return nil
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
