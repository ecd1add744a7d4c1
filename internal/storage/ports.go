// Package storage defines the ledger persistence ports shared by the
// Postgres and in-memory backends.
package storage

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YC815/my-accounting/internal/core"
)

// PageSize is the number of rows per listing page.
const PageSize = 50

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConstraint is returned when the database rejects a write, e.g. a
	// foreign key pointing at a missing category.
	ErrConstraint = errors.New("constraint violation")
)

type (
	// ExpenseFilter narrows an expense listing. Zero values disable a predicate.
	ExpenseFilter struct {
		CategoryID uuid.UUID
		Category   core.Category
		Search     string // case-insensitive substring of the name
		Range      core.DateRange
		MinAmount  decimal.NullDecimal
		MaxAmount  decimal.NullDecimal
		Page       int
	}

	RepaymentFilter struct {
		Range     core.DateRange
		MinAmount decimal.NullDecimal
		MaxAmount decimal.NullDecimal
		Page      int
	}

	AdjustmentFilter struct {
		Search    string // case-insensitive substring of the description
		Range     core.DateRange
		MinAmount decimal.NullDecimal
		MaxAmount decimal.NullDecimal
		Page      int
	}

	// Page is one slice of a listing plus the numbers needed to paginate it.
	Page[T any] struct {
		Items      []T
		Page       int
		Total      int
		TotalPages int
	}
)

// Ports for the ledger backends.
type (
	ExpenseStore interface {
		ListExpenses(ctx context.Context, f ExpenseFilter) (Page[core.Expense], error)
		GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id uuid.UUID) error
	}

	RepaymentStore interface {
		ListRepayments(ctx context.Context, f RepaymentFilter) (Page[core.Repayment], error)
		GetRepayment(ctx context.Context, id uuid.UUID) (core.Repayment, error)
		CreateRepayment(ctx context.Context, r core.Repayment) (core.Repayment, error)
		UpdateRepayment(ctx context.Context, r core.Repayment) (core.Repayment, error)
		DeleteRepayment(ctx context.Context, id uuid.UUID) error
	}

	AdjustmentStore interface {
		ListAdjustments(ctx context.Context, f AdjustmentFilter) (Page[core.Adjustment], error)
		GetAdjustment(ctx context.Context, id uuid.UUID) (core.Adjustment, error)
		CreateAdjustment(ctx context.Context, a core.Adjustment) (core.Adjustment, error)
		UpdateAdjustment(ctx context.Context, a core.Adjustment) (core.Adjustment, error)
		DeleteAdjustment(ctx context.Context, id uuid.UUID) error
	}

	CategoryStore interface {
		// ListCategories returns every category, active or not, in display order.
		ListCategories(ctx context.Context) ([]core.CategoryRecord, error)
		SetCategoryActive(ctx context.Context, name core.Category, active bool) (core.CategoryRecord, error)
	}

	// SnapshotReader returns all records inside r from a single consistent read.
	SnapshotReader interface {
		Snapshot(ctx context.Context, r core.DateRange) (core.Snapshot, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is everything a backend provides.
	Store interface {
		ExpenseStore
		RepaymentStore
		AdjustmentStore
		CategoryStore
		SnapshotReader
		Pinger
		Close() error
	}
)

// NormalizePage maps an unset page to the first one.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset is the number of rows skipped before page. It saturates at
// math.MaxInt so a huge page number lands past the end instead of wrapping.
func Offset(page int) int {
	page = NormalizePage(page)
	if page-1 > math.MaxInt/PageSize {
		return math.MaxInt
	}
	return (page - 1) * PageSize
}

// TotalPages is ceil(total / PageSize). An empty listing has zero pages.
func TotalPages(total int) int {
	return (total + PageSize - 1) / PageSize
}

// NewPage assembles a page result.
func NewPage[T any](items []T, page, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       NormalizePage(page),
		Total:      total,
		TotalPages: TotalPages(total),
	}
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// InAmountRange applies the inclusive min/max amount predicate.
func InAmountRange(amount decimal.Decimal, min, max decimal.NullDecimal) bool {
	if min.Valid && amount.LessThan(min.Decimal) {
		return false
	}
	if max.Valid && amount.GreaterThan(max.Decimal) {
		return false
	}
	return true
}
