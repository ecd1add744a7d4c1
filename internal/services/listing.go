package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/daterange"
	"github.com/YC815/my-accounting/internal/storage"
)

type (
	// ListQuery holds the filters every listing accepts, unparsed.
	ListQuery struct {
		Range     daterange.Params
		MinAmount string
		MaxAmount string
		Page      string
	}

	ExpenseQuery struct {
		ListQuery
		CategoryID   string
		CategoryName string // token or label
		Search       string
	}

	AdjustmentQuery struct {
		ListQuery
		Search string
	}
)

type listArgs struct {
	rng      core.DateRange
	min, max decimal.NullDecimal
	page     int
}

// ParsePage reads a 1-based page number. Empty means the first page.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, core.Invalid("page", core.ErrInvalidPage)
	}
	return n, nil
}

func parseAmountFilter(field, raw string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := core.ParseAmountBound(raw)
	if err != nil {
		return decimal.NullDecimal{}, core.Invalid(field, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func (s *LedgerService) parseList(q ListQuery) (listArgs, error) {
	var (
		args listArgs
		err  error
	)
	if args.rng, err = daterange.Resolve(daterange.Listing, s.Today(), q.Range); err != nil {
		return listArgs{}, err
	}
	if args.min, err = parseAmountFilter("min_amount", q.MinAmount); err != nil {
		return listArgs{}, err
	}
	if args.max, err = parseAmountFilter("max_amount", q.MaxAmount); err != nil {
		return listArgs{}, err
	}
	if args.page, err = ParsePage(q.Page); err != nil {
		return listArgs{}, err
	}
	return args, nil
}

// ListExpenses returns one page of expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, q ExpenseQuery) (storage.Page[core.Expense], error) {
	args, err := s.parseList(q.ListQuery)
	if err != nil {
		return storage.Page[core.Expense]{}, err
	}

	f := storage.ExpenseFilter{
		Search:    strings.TrimSpace(q.Search),
		Range:     args.rng,
		MinAmount: args.min,
		MaxAmount: args.max,
		Page:      args.page,
	}
	if raw := strings.TrimSpace(q.CategoryID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return storage.Page[core.Expense]{}, core.Invalid("category_id", core.ErrUnknownCategory)
		}
		f.CategoryID = id
	}
	if raw := strings.TrimSpace(q.CategoryName); raw != "" {
		name, err := core.ParseCategory(raw)
		if err != nil {
			return storage.Page[core.Expense]{}, core.Invalid("category_name", err)
		}
		f.Category = name
	}

	page, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return storage.Page[core.Expense]{}, fmt.Errorf("list expenses: %w", err)
	}
	return page, nil
}

// ListRepayments returns one page of repayments, newest first.
func (s *LedgerService) ListRepayments(ctx context.Context, q ListQuery) (storage.Page[core.Repayment], error) {
	args, err := s.parseList(q)
	if err != nil {
		return storage.Page[core.Repayment]{}, err
	}

	page, err := s.store.ListRepayments(ctx, storage.RepaymentFilter{
		Range:     args.rng,
		MinAmount: args.min,
		MaxAmount: args.max,
		Page:      args.page,
	})
	if err != nil {
		return storage.Page[core.Repayment]{}, fmt.Errorf("list repayments: %w", err)
	}
	return page, nil
}

// ListAdjustments returns one page of adjustments, newest first.
func (s *LedgerService) ListAdjustments(ctx context.Context, q AdjustmentQuery) (storage.Page[core.Adjustment], error) {
	args, err := s.parseList(q.ListQuery)
	if err != nil {
		return storage.Page[core.Adjustment]{}, err
	}

	page, err := s.store.ListAdjustments(ctx, storage.AdjustmentFilter{
		Search:    strings.TrimSpace(q.Search),
		Range:     args.rng,
		MinAmount: args.min,
		MaxAmount: args.max,
		Page:      args.page,
	})
	if err != nil {
		return storage.Page[core.Adjustment]{}, fmt.Errorf("list adjustments: %w", err)
	}
	return page, nil
}
