package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartflow/pkg/order"
)

var cols = []string{"id", "customer_id", "menu_outlet_item_id", "item", "quantity", "unit_price", "table_number", "status", "created_at"}

func TestRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	table := 4
	o := order.Order{
		ID: "o-1", CustomerID: 7, MenuOutletItemID: 11, Item: "Jollof Rice", Quantity: 2,
		UnitPrice: decimal.RequireFromString("12.5"), TableNumber: &table,
		Status: order.StatusPending, CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO orders").
		WithArgs("o-1", int64(7), int64(11), "Jollof Rice", int64(2), "12.50", int64(4), "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, New(db).Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=$1")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("o-1", 7, 11, "Jollof Rice", 2, "12.50", nil, "pending", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=$1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders ORDER BY created_at, id")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("o-1", 7, 11, "Jollof Rice", 2, "12.50", nil, "pending", created).
			AddRow("o-2", 7, 12, "Bobotie", 1, "15.00", 3, "pending", created))

	repo := New(db)
	ctx := context.Background()

	got, err := repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "Jollof Rice", got.Item)
	assert.Nil(t, got.TableNumber)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.UnitPrice))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[1].TableNumber)
	assert.Equal(t, 3, *list[1].TableNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}
