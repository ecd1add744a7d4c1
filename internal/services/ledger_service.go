package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YC815/my-accounting/internal/amqp"
	"github.com/YC815/my-accounting/internal/core"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/storage"
)

// Record kinds, as used in routes, events and logs.
const (
	KindExpense    = "expense"
	KindRepayment  = "repayment"
	KindAdjustment = "adjustment"
)

// EventPublisher receives a LedgerEvent after every committed mutation.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error
}

type (
	// ExpenseInput is an expense form as submitted. An empty Date means today.
	ExpenseInput struct {
		CategoryID string
		Name       string
		Amount     string
		Date       string
	}

	RepaymentInput struct {
		Amount string
		Date   string
	}

	AdjustmentInput struct {
		Amount      string
		Description string
		Date        string
	}
)

// LedgerService validates ledger writes, stores them and announces them.
type LedgerService struct {
	store  storage.Store
	events EventPublisher
	loc    *time.Location
	now    func() time.Time
}

// NewLedgerService wires the service. events may be nil, in which case no
// change events are published.
func NewLedgerService(store storage.Store, events EventPublisher, loc *time.Location) *LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerService{
		store:  store,
		events: events,
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// Today is the current day in the ledger timezone.
func (s *LedgerService) Today() core.Date {
	return core.Today(s.now(), s.loc)
}

func (s *LedgerService) timestamp() time.Time {
	return s.now().In(s.loc)
}

// Categories returns every category in display order.
func (s *LedgerService) Categories(ctx context.Context) ([]core.CategoryRecord, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// ActiveCategories returns the categories offered for new expenses.
func (s *LedgerService) ActiveCategories(ctx context.Context) ([]core.CategoryRecord, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]core.CategoryRecord, 0, len(cats))
	for _, c := range cats {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

// SetCategoryActive toggles whether a category is offered and counted.
func (s *LedgerService) SetCategoryActive(ctx context.Context, raw string, active bool) (core.CategoryRecord, error) {
	name, err := core.ParseCategory(raw)
	if err != nil {
		return core.CategoryRecord{}, core.Invalid("category", err)
	}
	rec, err := s.store.SetCategoryActive(ctx, name, active)
	if err != nil {
		return core.CategoryRecord{}, fmt.Errorf("set category %s active=%t: %w", name, active, err)
	}
	return rec, nil
}

// Expenses

func (s *LedgerService) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *LedgerService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	e, err := s.buildExpense(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	now := s.timestamp()
	e.ID = uuid.New()
	e.CreatedAt, e.UpdatedAt = now, now

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, expenseWriteError("create expense", err)
	}
	s.committed(ctx, amqp.OpCreate, KindExpense, created.ID, created.Amount, created.Date)
	return created, nil
}

// UpdateExpense overwrites every editable field of the expense.
func (s *LedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (core.Expense, error) {
	e, err := s.buildExpense(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	e.UpdatedAt = s.timestamp()

	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, expenseWriteError("update expense", err)
	}
	s.committed(ctx, amqp.OpUpdate, KindExpense, updated.ID, updated.Amount, updated.Date)
	return updated, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.committedDelete(ctx, KindExpense, id)
	return nil
}

func (s *LedgerService) buildExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	cat, err := s.lookupCategory(ctx, in.CategoryID)
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		CategoryID: cat.ID,
		Category:   cat.Name,
		Name:       strings.TrimSpace(in.Name),
		Amount:     amount,
		Date:       date,
	}
	return e, e.Validate()
}

func (s *LedgerService) lookupCategory(ctx context.Context, raw string) (core.CategoryRecord, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.CategoryRecord{}, core.Invalid("category_id", core.ErrMissingCategory)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return core.CategoryRecord{}, core.Invalid("category_id", core.ErrUnknownCategory)
	}
	cats, err := s.Categories(ctx)
	if err != nil {
		return core.CategoryRecord{}, err
	}
	for _, c := range cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.CategoryRecord{}, core.Invalid("category_id", core.ErrUnknownCategory)
}

// expenseWriteError reports a foreign key failure as an unknown category;
// the category can vanish between lookup and write.
func expenseWriteError(op string, err error) error {
	if errors.Is(err, storage.ErrConstraint) {
		return core.Invalid("category_id", core.ErrUnknownCategory)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Repayments

func (s *LedgerService) GetRepayment(ctx context.Context, id uuid.UUID) (core.Repayment, error) {
	return s.store.GetRepayment(ctx, id)
}

func (s *LedgerService) CreateRepayment(ctx context.Context, in RepaymentInput) (core.Repayment, error) {
	r, err := s.buildRepayment(in)
	if err != nil {
		return core.Repayment{}, err
	}
	now := s.timestamp()
	r.ID = uuid.New()
	r.CreatedAt, r.UpdatedAt = now, now

	created, err := s.store.CreateRepayment(ctx, r)
	if err != nil {
		return core.Repayment{}, fmt.Errorf("create repayment: %w", err)
	}
	s.committed(ctx, amqp.OpCreate, KindRepayment, created.ID, created.Amount, created.Date)
	return created, nil
}

func (s *LedgerService) UpdateRepayment(ctx context.Context, id uuid.UUID, in RepaymentInput) (core.Repayment, error) {
	r, err := s.buildRepayment(in)
	if err != nil {
		return core.Repayment{}, err
	}
	r.ID = id
	r.UpdatedAt = s.timestamp()

	updated, err := s.store.UpdateRepayment(ctx, r)
	if err != nil {
		return core.Repayment{}, fmt.Errorf("update repayment: %w", err)
	}
	s.committed(ctx, amqp.OpUpdate, KindRepayment, updated.ID, updated.Amount, updated.Date)
	return updated, nil
}

func (s *LedgerService) DeleteRepayment(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteRepayment(ctx, id); err != nil {
		return fmt.Errorf("delete repayment: %w", err)
	}
	s.committedDelete(ctx, KindRepayment, id)
	return nil
}

func (s *LedgerService) buildRepayment(in RepaymentInput) (core.Repayment, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Repayment{}, err
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return core.Repayment{}, err
	}
	r := core.Repayment{Amount: amount, Date: date}
	return r, r.Validate()
}

// Adjustments

func (s *LedgerService) GetAdjustment(ctx context.Context, id uuid.UUID) (core.Adjustment, error) {
	return s.store.GetAdjustment(ctx, id)
}

func (s *LedgerService) CreateAdjustment(ctx context.Context, in AdjustmentInput) (core.Adjustment, error) {
	a, err := s.buildAdjustment(in)
	if err != nil {
		return core.Adjustment{}, err
	}
	now := s.timestamp()
	a.ID = uuid.New()
	a.CreatedAt, a.UpdatedAt = now, now

	created, err := s.store.CreateAdjustment(ctx, a)
	if err != nil {
		return core.Adjustment{}, fmt.Errorf("create adjustment: %w", err)
	}
	s.committed(ctx, amqp.OpCreate, KindAdjustment, created.ID, created.Amount, created.Date)
	return created, nil
}

func (s *LedgerService) UpdateAdjustment(ctx context.Context, id uuid.UUID, in AdjustmentInput) (core.Adjustment, error) {
	a, err := s.buildAdjustment(in)
	if err != nil {
		return core.Adjustment{}, err
	}
	a.ID = id
	a.UpdatedAt = s.timestamp()

	updated, err := s.store.UpdateAdjustment(ctx, a)
	if err != nil {
		return core.Adjustment{}, fmt.Errorf("update adjustment: %w", err)
	}
	s.committed(ctx, amqp.OpUpdate, KindAdjustment, updated.ID, updated.Amount, updated.Date)
	return updated, nil
}

func (s *LedgerService) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAdjustment(ctx, id); err != nil {
		return fmt.Errorf("delete adjustment: %w", err)
	}
	s.committedDelete(ctx, KindAdjustment, id)
	return nil
}

func (s *LedgerService) buildAdjustment(in AdjustmentInput) (core.Adjustment, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Adjustment{}, err
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return core.Adjustment{}, err
	}
	a := core.Adjustment{
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
	}
	return a, a.Validate()
}

// Input parsing

func (s *LedgerService) parseDate(raw string) (core.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Today(), nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, core.Invalid("date", err)
	}
	return d, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, core.Invalid("amount", err)
	}
	return d, nil
}

// Events

func (s *LedgerService) committed(ctx context.Context, op, kind string, id uuid.UUID, amount decimal.Decimal, date core.Date) {
	s.announce(ctx, op, kind, id, core.FormatAmount(amount), date.String())
}

func (s *LedgerService) committedDelete(ctx context.Context, kind string, id uuid.UUID) {
	s.announce(ctx, amqp.OpDelete, kind, id, "", "")
}

// announce logs the mutation and publishes its event. The write is already
// committed, so a failed publish is logged and otherwise ignored.
func (s *LedgerService) announce(ctx context.Context, op, kind string, id uuid.UUID, amount, date string) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentLedger)
	sl := applog.NewStructuredLogger(logger)
	sl.LogLedgerMutation(ctx, op, kind, id.String(), amount, date)

	if s.events == nil {
		logger.DebugContext(ctx, "Event publisher not configured, skipping ledger event")
		return
	}

	if err := s.events.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(kind, op, id.String(), amount, date)); err != nil {
		sl.LogError(ctx, "Failed to publish ledger event", err, applog.OpPublish,
			applog.NewFields().WithRecord(kind, id.String()))
	}
}
