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

const adjustmentColumns = `id, amount::text, description, date, created_at, updated_at`

func scanAdjustment(row pgx.Row) (core.Adjustment, error) {
	var (
		a      core.Adjustment
		amount string
		date   time.Time
	)
	if err := row.Scan(&a.ID, &amount, &a.Description, &date, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return core.Adjustment{}, err
	}
	d, err := parseAmount(amount)
	if err != nil {
		return core.Adjustment{}, err
	}
	a.Amount = d
	a.Date = core.DateOf(date)
	return a, nil
}

func collectAdjustments(rows pgx.Rows) ([]core.Adjustment, error) {
	defer rows.Close()
	var out []core.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) ListAdjustments(ctx context.Context, f storage.AdjustmentFilter) (storage.Page[core.Adjustment], error) {
	page := storage.NormalizePage(f.Page)
	w := &where{}
	w.contains("description", f.Search)
	w.dateRange("date", f.Range)
	w.amountRange("amount", f.MinAmount, f.MaxAmount)

	var (
		items []core.Adjustment
		total int
	)
	err := r.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		total, err = count(ctx, tx, `SELECT count(*) FROM adjustments`+w.String(), w.args)
		if err != nil {
			return fmt.Errorf("count adjustments: %w", err)
		}
		sql := `SELECT ` + adjustmentColumns + ` FROM adjustments` + w.String() + newestFirst +
			` LIMIT ` + w.next(storage.PageSize) + ` OFFSET ` + w.next(storage.Offset(page))
		rows, err := tx.Query(ctx, sql, w.args...)
		if err != nil {
			return fmt.Errorf("list adjustments: %w", err)
		}
		items, err = collectAdjustments(rows)
		return err
	})
	if err != nil {
		return storage.Page[core.Adjustment]{}, err
	}
	return storage.NewPage(items, page, total), nil
}

func (r *Repository) GetAdjustment(ctx context.Context, id uuid.UUID) (core.Adjustment, error) {
	a, err := scanAdjustment(r.pool.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM adjustments WHERE id = $1`, id))
	if err != nil {
		return core.Adjustment{}, mapErr(err)
	}
	return a, nil
}

func (r *Repository) CreateAdjustment(ctx context.Context, a core.Adjustment) (core.Adjustment, error) {
	var out core.Adjustment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanAdjustment(tx.QueryRow(ctx,
			`INSERT INTO adjustments(id, amount, description, date, created_at, updated_at)
			 VALUES($1, $2, $3, $4, $5, $6)
			 RETURNING `+adjustmentColumns,
			a.ID, amountArg(a.Amount), a.Description, a.Date.Time, a.CreatedAt, a.UpdatedAt,
		))
		return mapErr(err)
	})
	if err != nil {
		return core.Adjustment{}, fmt.Errorf("create adjustment: %w", err)
	}
	logMutation(ctx, "create", "adjustment", a.ID)
	return out, nil
}

func (r *Repository) UpdateAdjustment(ctx context.Context, a core.Adjustment) (core.Adjustment, error) {
	var out core.Adjustment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanAdjustment(tx.QueryRow(ctx,
			`UPDATE adjustments SET amount = $2, description = $3, date = $4, updated_at = $5
			 WHERE id = $1
			 RETURNING `+adjustmentColumns,
			a.ID, amountArg(a.Amount), a.Description, a.Date.Time, a.UpdatedAt,
		))
		return mapErr(err)
	})
	if err != nil {
		return core.Adjustment{}, fmt.Errorf("update adjustment: %w", err)
	}
	logMutation(ctx, "update", "adjustment", a.ID)
	return out, nil
}

func (r *Repository) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM adjustments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete adjustment: %w", err)
	}
	logMutation(ctx, "delete", "adjustment", id)
	return nil
}
