package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/YC815/my-accounting/internal/core"
	applog "github.com/YC815/my-accounting/internal/log"
	"github.com/YC815/my-accounting/internal/storage"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), storage.ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), storage.ErrNotFound)

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "expenses_category_id_fkey"}
	err := mapErr(fk)
	assert.ErrorIs(t, err, storage.ErrConstraint)
	assert.Contains(t, err.Error(), "expenses_category_id_fkey")

	other := errors.New("connection reset")
	assert.Equal(t, other, mapErr(other))
}

func TestSortCategories(t *testing.T) {
	cats := []core.CategoryRecord{
		{Name: core.CategoryDailyGoods},
		{Name: "legacy"},
		{Name: core.CategoryFood},
		{Name: core.CategoryTransport},
	}
	sortCategories(cats)
	assert.Equal(t, core.CategoryFood, cats[0].Name)
	assert.Equal(t, core.CategoryTransport, cats[1].Name)
	assert.Equal(t, core.CategoryDailyGoods, cats[2].Name)
	assert.Equal(t, core.Category("legacy"), cats[3].Name)
}

func TestAmountArg(t *testing.T) {
	d, err := parseAmount("12.5")
	assert.NoError(t, err)
	assert.Equal(t, "12.50", amountArg(d))

	_, err = parseAmount("NaN?")
	assert.Error(t, err)
}

func TestLogMutationUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Output: &buf})
	ctx := applog.WithLogger(context.Background(), logger)

	id := uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001")
	logMutation(ctx, applog.OpCreate, "repayment", id)

	out := buf.String()
	assert.Contains(t, out, "component="+applog.ComponentStorage)
	assert.Contains(t, out, "record_kind=repayment")
	assert.Contains(t, out, "record_id="+id.String())
}
