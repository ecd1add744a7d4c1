package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/YC815/my-accounting/internal/core"
)

const oldestFirst = ` ORDER BY date, created_at, id`

// Snapshot reads categories and every record inside rng in one
// repeatable-read transaction, oldest first.
func (r *Repository) Snapshot(ctx context.Context, rng core.DateRange) (core.Snapshot, error) {
	var snap core.Snapshot
	err := r.readTx(ctx, func(tx pgx.Tx) error {
		var err error
		if snap.Categories, err = listCategories(ctx, tx); err != nil {
			return err
		}

		w := &where{}
		w.dateRange("e.date", rng)
		rows, err := tx.Query(ctx, `SELECT `+expenseColumns+expenseFrom+w.String()+
			` ORDER BY e.date, e.created_at, e.id`, w.args...)
		if err != nil {
			return fmt.Errorf("snapshot expenses: %w", err)
		}
		if snap.Expenses, err = collectExpenses(rows); err != nil {
			return err
		}

		w = &where{}
		w.dateRange("date", rng)
		rows, err = tx.Query(ctx, `SELECT `+repaymentColumns+` FROM repayments`+w.String()+oldestFirst, w.args...)
		if err != nil {
			return fmt.Errorf("snapshot repayments: %w", err)
		}
		if snap.Repayments, err = collectRepayments(rows); err != nil {
			return err
		}

		rows, err = tx.Query(ctx, `SELECT `+adjustmentColumns+` FROM adjustments`+w.String()+oldestFirst, w.args...)
		if err != nil {
			return fmt.Errorf("snapshot adjustments: %w", err)
		}
		snap.Adjustments, err = collectAdjustments(rows)
		return err
	})
	if err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}
