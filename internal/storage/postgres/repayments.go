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

const repaymentColumns = `id, amount::text, date, created_at, updated_at`

func scanRepayment(row pgx.Row) (core.Repayment, error) {
	var (
		rep    core.Repayment
		amount string
		date   time.Time
	)
	if err := row.Scan(&rep.ID, &amount, &date, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
		return core.Repayment{}, err
	}
	a, err := parseAmount(amount)
	if err != nil {
		return core.Repayment{}, err
	}
	rep.Amount = a
	rep.Date = core.DateOf(date)
	return rep, nil
}

func collectRepayments(rows pgx.Rows) ([]core.Repayment, error) {
	defer rows.Close()
	var out []core.Repayment
	for rows.Next() {
		rep, err := scanRepayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *Repository) ListRepayments(ctx context.Context, f storage.RepaymentFilter) (storage.Page[core.Repayment], error) {
	page := storage.NormalizePage(f.Page)
	w := &where{}
	w.dateRange("date", f.Range)
	w.amountRange("amount", f.MinAmount, f.MaxAmount)

	var (
		items []core.Repayment
		total int
	)
	err := r.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		total, err = count(ctx, tx, `SELECT count(*) FROM repayments`+w.String(), w.args)
		if err != nil {
			return fmt.Errorf("count repayments: %w", err)
		}
		sql := `SELECT ` + repaymentColumns + ` FROM repayments` + w.String() + newestFirst +
			` LIMIT ` + w.next(storage.PageSize) + ` OFFSET ` + w.next(storage.Offset(page))
		rows, err := tx.Query(ctx, sql, w.args...)
		if err != nil {
			return fmt.Errorf("list repayments: %w", err)
		}
		items, err = collectRepayments(rows)
		return err
	})
	if err != nil {
		return storage.Page[core.Repayment]{}, err
	}
	return storage.NewPage(items, page, total), nil
}

func (r *Repository) GetRepayment(ctx context.Context, id uuid.UUID) (core.Repayment, error) {
	rep, err := scanRepayment(r.pool.QueryRow(ctx, `SELECT `+repaymentColumns+` FROM repayments WHERE id = $1`, id))
	if err != nil {
		return core.Repayment{}, mapErr(err)
	}
	return rep, nil
}

func (r *Repository) CreateRepayment(ctx context.Context, rep core.Repayment) (core.Repayment, error) {
	var out core.Repayment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanRepayment(tx.QueryRow(ctx,
			`INSERT INTO repayments(id, amount, date, created_at, updated_at)
			 VALUES($1, $2, $3, $4, $5)
			 RETURNING `+repaymentColumns,
			rep.ID, amountArg(rep.Amount), rep.Date.Time, rep.CreatedAt, rep.UpdatedAt,
		))
		return mapErr(err)
	})
	if err != nil {
		return core.Repayment{}, fmt.Errorf("create repayment: %w", err)
	}
	logMutation(ctx, "create", "repayment", rep.ID)
	return out, nil
}

func (r *Repository) UpdateRepayment(ctx context.Context, rep core.Repayment) (core.Repayment, error) {
	var out core.Repayment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanRepayment(tx.QueryRow(ctx,
			`UPDATE repayments SET amount = $2, date = $3, updated_at = $4
			 WHERE id = $1
			 RETURNING `+repaymentColumns,
			rep.ID, amountArg(rep.Amount), rep.Date.Time, rep.UpdatedAt,
		))
		return mapErr(err)
	})
	if err != nil {
		return core.Repayment{}, fmt.Errorf("update repayment: %w", err)
	}
	logMutation(ctx, "update", "repayment", rep.ID)
	return out, nil
}

func (r *Repository) DeleteRepayment(ctx context.Context, id uuid.UUID) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM repayments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete repayment: %w", err)
	}
	logMutation(ctx, "delete", "repayment", id)
	return nil
}
