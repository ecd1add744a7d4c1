package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/YC815/my-accounting/internal/core"
	applog "github.com/YC815/my-accounting/internal/log"
)

const categoryColumns = `id, name, active, created_at, updated_at`

func scanCategory(row pgx.Row) (core.CategoryRecord, error) {
	var (
		c    core.CategoryRecord
		name string
	)
	if err := row.Scan(&c.ID, &name, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return core.CategoryRecord{}, err
	}
	c.Name = core.Category(name)
	return c, nil
}

func listCategories(ctx context.Context, q querier) ([]core.CategoryRecord, error) {
	rows, err := q.Query(ctx, `SELECT `+categoryColumns+` FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryRecord
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortCategories(out)
	return out, nil
}

// sortCategories puts rows in display order; unknown names go last.
func sortCategories(cats []core.CategoryRecord) {
	rank := func(c core.Category) int {
		for i, known := range core.Categories {
			if c == known {
				return i
			}
		}
		return len(core.Categories)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return rank(cats[i].Name) < rank(cats[j].Name)
	})
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.CategoryRecord, error) {
	return listCategories(ctx, r.pool)
}

func (r *Repository) SetCategoryActive(ctx context.Context, name core.Category, active bool) (core.CategoryRecord, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`UPDATE categories SET active = $2, updated_at = $3 WHERE name = $1 RETURNING `+categoryColumns,
		string(name), active, time.Now().UTC(),
	))
	if err != nil {
		return core.CategoryRecord{}, fmt.Errorf("set category %s active: %w", name, mapErr(err))
	}
	return c, nil
}

// SeedCategories inserts the five categories when the table is empty.
func (r *Repository) SeedCategories(ctx context.Context) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&n); err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if n > 0 {
			return nil
		}

		now := time.Now().UTC()
		batch := &pgx.Batch{}
		for _, c := range core.Categories {
			batch.Queue(
				`INSERT INTO categories(id, name, active, created_at, updated_at)
				 VALUES($1, $2, TRUE, $3, $3)
				 ON CONFLICT (name) DO NOTHING`,
				uuid.New(), string(c), now,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		applog.FromContext(ctx).WithComponent(applog.ComponentStorage).InfoContext(ctx, "Seeded categories",
			applog.FieldOperation, applog.OpStartup,
			"count", len(core.Categories))
		return nil
	})
}
