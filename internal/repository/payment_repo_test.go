package repository

import (
	"context"
	"testing"

	"backoffice/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestPaymentSumByOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewPaymentRepository(gormDB)
	orderID := uuid.New()

	t.Run("signed sum includes refund rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "payments" WHERE order_id =`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("3.60"))

		sum, err := repo.SumByOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.RequireFromString("3.60")), "got %s", sum)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no payments sums to zero", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "payments" WHERE order_id =`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("0"))

		sum, err := repo.SumByOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentSumPositiveByOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewPaymentRepository(gormDB)
	orderID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "payments" WHERE order_id = .* AND amount > 0`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("8.40"))

	sum, err := repo.SumPositiveByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("8.40")), "got %s", sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCountByOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewPaymentRepository(gormDB)
	orderID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "payments" WHERE order_id =`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentFindByOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewPaymentRepository(gormDB)
	orderID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "order_id", "amount", "currency", "method", "tip_portion"}).
		AddRow(uuid.New(), orderID, "8.40", "EUR", model.PaymentMethodCash, "0").
		AddRow(uuid.New(), orderID, "-8.40", "EUR", model.PaymentMethodCash, "0")

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE order_id = .* ORDER BY created_at asc`).
		WithArgs(orderID).
		WillReturnRows(rows)

	payments, err := repo.FindByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.True(t, payments[1].Amount.IsNegative())
	assert.NoError(t, mock.ExpectationsWereMet())
}
