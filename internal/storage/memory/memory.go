// Package memory is an in-process ledger backend with the same ordering,
// filtering and pagination rules as the Postgres store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/storage"
)

type entry[T any] struct {
	seq uint64
	rec T
}

type Store struct {
	mu          sync.Mutex
	seq         uint64
	cats        []core.CategoryRecord
	expenses    map[uuid.UUID]entry[core.Expense]
	repayments  map[uuid.UUID]entry[core.Repayment]
	adjustments map[uuid.UUID]entry[core.Adjustment]
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store seeded with the five categories, all active.
func New() *Store {
	now := time.Now().UTC()
	cats := make([]core.CategoryRecord, 0, len(core.Categories))
	for _, c := range core.Categories {
		cats = append(cats, core.CategoryRecord{
			ID:        uuid.New(),
			Name:      c,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return &Store{
		cats:        cats,
		expenses:    map[uuid.UUID]entry[core.Expense]{},
		repayments:  map[uuid.UUID]entry[core.Repayment]{},
		adjustments: map[uuid.UUID]entry[core.Adjustment]{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ListCategories returns copies of the category rows.
func (s *Store) ListCategories(_ context.Context) ([]core.CategoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CategoryRecord(nil), s.cats...), nil
}

func (s *Store) SetCategoryActive(_ context.Context, name core.Category, active bool) (core.CategoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cats {
		if s.cats[i].Name == name {
			s.cats[i].Active = active
			s.cats[i].UpdatedAt = time.Now().UTC()
			return s.cats[i], nil
		}
	}
	return core.CategoryRecord{}, storage.ErrNotFound
}

func (s *Store) categoryByID(id uuid.UUID) (core.CategoryRecord, bool) {
	for _, c := range s.cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.CategoryRecord{}, false
}

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

// Expenses

func (s *Store) ListExpenses(_ context.Context, f storage.ExpenseFilter) (storage.Page[core.Expense], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []entry[core.Expense]
	for _, e := range s.expenses {
		rec := s.resolve(e.rec)
		if f.CategoryID != uuid.Nil && rec.CategoryID != f.CategoryID {
			continue
		}
		if f.CategoryID == uuid.Nil && f.Category != "" && rec.Category != f.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.Name), search) {
			continue
		}
		if !f.Range.Contains(rec.Date) || !storage.InAmountRange(rec.Amount, f.MinAmount, f.MaxAmount) {
			continue
		}
		matched = append(matched, entry[core.Expense]{seq: e.seq, rec: rec})
	}
	sortNewestFirst(matched, func(e core.Expense) (core.Date, time.Time) { return e.Date, e.CreatedAt })
	return paginate(matched, f.Page), nil
}

func (s *Store) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	return s.resolve(e.rec), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categoryByID(e.CategoryID); !ok {
		return core.Expense{}, storage.ErrConstraint
	}
	if _, dup := s.expenses[e.ID]; dup {
		return core.Expense{}, storage.ErrConstraint
	}
	s.expenses[e.ID] = entry[core.Expense]{seq: s.next(), rec: e}
	return s.resolve(e), nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.expenses[e.ID]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	if _, ok := s.categoryByID(e.CategoryID); !ok {
		return core.Expense{}, storage.ErrConstraint
	}
	e.CreatedAt = old.rec.CreatedAt
	s.expenses[e.ID] = entry[core.Expense]{seq: old.seq, rec: e}
	return s.resolve(e), nil
}

func (s *Store) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) resolve(e core.Expense) core.Expense {
	if c, ok := s.categoryByID(e.CategoryID); ok {
		e.Category = c.Name
	}
	return e
}

// Repayments

func (s *Store) ListRepayments(_ context.Context, f storage.RepaymentFilter) (storage.Page[core.Repayment], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []entry[core.Repayment]
	for _, r := range s.repayments {
		if !f.Range.Contains(r.rec.Date) || !storage.InAmountRange(r.rec.Amount, f.MinAmount, f.MaxAmount) {
			continue
		}
		matched = append(matched, r)
	}
	sortNewestFirst(matched, func(r core.Repayment) (core.Date, time.Time) { return r.Date, r.CreatedAt })
	return paginate(matched, f.Page), nil
}

func (s *Store) GetRepayment(_ context.Context, id uuid.UUID) (core.Repayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.repayments[id]
	if !ok {
		return core.Repayment{}, storage.ErrNotFound
	}
	return r.rec, nil
}

func (s *Store) CreateRepayment(_ context.Context, r core.Repayment) (core.Repayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.repayments[r.ID]; dup {
		return core.Repayment{}, storage.ErrConstraint
	}
	s.repayments[r.ID] = entry[core.Repayment]{seq: s.next(), rec: r}
	return r, nil
}

func (s *Store) UpdateRepayment(_ context.Context, r core.Repayment) (core.Repayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.repayments[r.ID]
	if !ok {
		return core.Repayment{}, storage.ErrNotFound
	}
	r.CreatedAt = old.rec.CreatedAt
	s.repayments[r.ID] = entry[core.Repayment]{seq: old.seq, rec: r}
	return r, nil
}

func (s *Store) DeleteRepayment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repayments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.repayments, id)
	return nil
}

// Adjustments

func (s *Store) ListAdjustments(_ context.Context, f storage.AdjustmentFilter) (storage.Page[core.Adjustment], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []entry[core.Adjustment]
	for _, a := range s.adjustments {
		if search != "" && !strings.Contains(strings.ToLower(a.rec.Description), search) {
			continue
		}
		if !f.Range.Contains(a.rec.Date) || !storage.InAmountRange(a.rec.Amount, f.MinAmount, f.MaxAmount) {
			continue
		}
		matched = append(matched, a)
	}
	sortNewestFirst(matched, func(a core.Adjustment) (core.Date, time.Time) { return a.Date, a.CreatedAt })
	return paginate(matched, f.Page), nil
}

func (s *Store) GetAdjustment(_ context.Context, id uuid.UUID) (core.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.adjustments[id]
	if !ok {
		return core.Adjustment{}, storage.ErrNotFound
	}
	return a.rec, nil
}

func (s *Store) CreateAdjustment(_ context.Context, a core.Adjustment) (core.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.adjustments[a.ID]; dup {
		return core.Adjustment{}, storage.ErrConstraint
	}
	s.adjustments[a.ID] = entry[core.Adjustment]{seq: s.next(), rec: a}
	return a, nil
}

func (s *Store) UpdateAdjustment(_ context.Context, a core.Adjustment) (core.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.adjustments[a.ID]
	if !ok {
		return core.Adjustment{}, storage.ErrNotFound
	}
	a.CreatedAt = old.rec.CreatedAt
	s.adjustments[a.ID] = entry[core.Adjustment]{seq: old.seq, rec: a}
	return a, nil
}

func (s *Store) DeleteAdjustment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adjustments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.adjustments, id)
	return nil
}

// Snapshot returns every record inside r, oldest first, under one lock.
func (s *Store) Snapshot(_ context.Context, r core.DateRange) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap core.Snapshot
	snap.Categories = append([]core.CategoryRecord(nil), s.cats...)

	var exps []entry[core.Expense]
	for _, e := range s.expenses {
		if r.Contains(e.rec.Date) {
			exps = append(exps, entry[core.Expense]{seq: e.seq, rec: s.resolve(e.rec)})
		}
	}
	var reps []entry[core.Repayment]
	for _, e := range s.repayments {
		if r.Contains(e.rec.Date) {
			reps = append(reps, e)
		}
	}
	var adjs []entry[core.Adjustment]
	for _, e := range s.adjustments {
		if r.Contains(e.rec.Date) {
			adjs = append(adjs, e)
		}
	}

	snap.Expenses = oldestFirst(exps, func(e core.Expense) (core.Date, time.Time) { return e.Date, e.CreatedAt })
	snap.Repayments = oldestFirst(reps, func(r core.Repayment) (core.Date, time.Time) { return r.Date, r.CreatedAt })
	snap.Adjustments = oldestFirst(adjs, func(a core.Adjustment) (core.Date, time.Time) { return a.Date, a.CreatedAt })
	return snap, nil
}

// sortNewestFirst orders by date desc, creation time desc, insertion desc.
func sortNewestFirst[T any](items []entry[T], key func(T) (core.Date, time.Time)) {
	sort.Slice(items, func(i, j int) bool {
		di, ci := key(items[i].rec)
		dj, cj := key(items[j].rec)
		if !di.Equal(dj.Time) {
			return di.After(dj.Time)
		}
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return items[i].seq > items[j].seq
	})
}

func oldestFirst[T any](items []entry[T], key func(T) (core.Date, time.Time)) []T {
	sortNewestFirst(items, key)
	out := make([]T, len(items))
	for i := range items {
		out[len(items)-1-i] = items[i].rec
	}
	return out
}

func paginate[T any](items []entry[T], page int) storage.Page[T] {
	page = storage.NormalizePage(page)
	total := len(items)
	out := []T{}
	if page <= storage.TotalPages(total) {
		start := storage.Offset(page)
		end := start + storage.PageSize
		if end > total {
			end = total
		}
		for _, e := range items[start:end] {
			out = append(out, e.rec)
		}
	}
	return storage.NewPage(out, page, total)
}
