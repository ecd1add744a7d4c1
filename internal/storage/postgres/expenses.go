package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/storage"
)

const expenseColumns = `e.id, e.category_id, c.name, e.name, e.amount::text, e.date, e.created_at, e.updated_at`

const expenseFrom = ` FROM expenses e JOIN categories c ON c.id = e.category_id`

const newestFirst = ` ORDER BY date DESC, created_at DESC, id DESC`

func expenseWhere(f storage.ExpenseFilter) *where {
	w := &where{}
	if f.CategoryID != uuid.Nil {
		w.add("e.category_id = ?", f.CategoryID)
	} else if f.Category != "" {
		w.add("c.name = ?", string(f.Category))
	}
	w.contains("e.name", f.Search)
	w.dateRange("e.date", f.Range)
	w.amountRange("e.amount", f.MinAmount, f.MaxAmount)
	return w
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e        core.Expense
		category string
		amount   string
		date     time.Time
	)
	if err := row.Scan(&e.ID, &e.CategoryID, &category, &e.Name, &amount, &date, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	a, err := parseAmount(amount)
	if err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Amount = a
	e.Date = core.DateOf(date)
	return e, nil
}

func collectExpenses(rows pgx.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) ListExpenses(ctx context.Context, f storage.ExpenseFilter) (storage.Page[core.Expense], error) {
	page := storage.NormalizePage(f.Page)
	w := expenseWhere(f)

	var (
		items []core.Expense
		total int
	)
	err := r.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		total, err = count(ctx, tx, `SELECT count(*)`+expenseFrom+w.String(), w.args)
		if err != nil {
			return fmt.Errorf("count expenses: %w", err)
		}
		sql := `SELECT ` + expenseColumns + expenseFrom + w.String() +
			` ORDER BY e.date DESC, e.created_at DESC, e.id DESC` +
			` LIMIT ` + w.next(storage.PageSize) + ` OFFSET ` + w.next(storage.Offset(page))
		rows, err := tx.Query(ctx, sql, w.args...)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		items, err = collectExpenses(rows)
		return err
	})
	if err != nil {
		return storage.Page[core.Expense]{}, err
	}
	return storage.NewPage(items, page, total), nil
}

func (r *Repository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	return getExpense(ctx, r.pool, id)
}

func getExpense(ctx context.Context, q querier, id uuid.UUID) (core.Expense, error) {
	e, err := scanExpense(q.QueryRow(ctx, `SELECT `+expenseColumns+expenseFrom+` WHERE e.id = $1`, id))
	if err != nil {
		return core.Expense{}, mapErr(err)
	}
	return e, nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO expenses(id, category_id, name, amount, date, created_at, updated_at)
			 VALUES($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.CategoryID, e.Name, amountArg(e.Amount), e.Date.Time, e.CreatedAt, e.UpdatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
		out, err = getExpense(ctx, tx, e.ID)
		return err
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	logMutation(ctx, "create", "expense", e.ID)
	return out, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE expenses SET category_id = $2, name = $3, amount = $4, date = $5, updated_at = $6
			 WHERE id = $1`,
			e.ID, e.CategoryID, e.Name, amountArg(e.Amount), e.Date.Time, e.UpdatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		out, err = getExpense(ctx, tx, e.ID)
		return err
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	logMutation(ctx, "update", "expense", e.ID)
	return out, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	logMutation(ctx, "delete", "expense", id)
	return nil
}
