package repositories

import (
	"context"
	"testing"
	"time"

	"payway/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestPaymentGetByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE "payments"."id" = \$1 .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_paid", "price_after_discount_amount", "price_after_discount_currency"}).
			AddRow(7, 3, false, "100.00", "SAR"))
	mock.ExpectCommit()

	err := repo.ExecuteInTransaction(context.Background(), func(tx PaymentRepository) error {
		p, err := tx.GetByIDForUpdate(context.Background(), 7)
		if err != nil {
			return err
		}
		assert.Equal(t, uint(7), p.ID)
		assert.True(t, p.PriceAfterDiscount.Amount.Equal(decimal.RequireFromString("100")))
		assert.Equal(t, "SAR", p.PriceAfterDiscount.Currency)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentMarkPaidOnlyFromUnpaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "is_paid"=\$1,"updated_at"=\$2 WHERE \(?id = \$3 AND is_paid = \$4`).
		WithArgs(true, sqlmock.AnyArg(), 7, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.MarkPaid(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, changed)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "is_paid"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err = repo.MarkPaid(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSetChargeOnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET .* WHERE \(?id = \$\d AND payment_charge_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetCharge(context.Background(), 7, "chg_1", "tap")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletGetByIDForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWalletRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "wallets" WHERE "wallets"."id" = \$1 .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance_amount", "balance_currency"}).
			AddRow(1, 3, "25.50", "EGP"))

	w, err := repo.GetByIDForUpdate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "25.5", w.Balance.Amount.String())
	assert.Equal(t, "EGP", w.Balance.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletCreateTransactionDuplicateReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWalletRepository(db)
	ref := "referral:12"

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "wallet_transactions"`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.CreateTransaction(context.Background(), &models.WalletTransaction{
		WalletID:  1,
		Amount:    models.NewMoney(decimal.NewFromInt(10), "SAR"),
		Type:      models.TransactionReferral,
		Reference: &ref,
		CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletSumTransactions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWalletRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_amount\), 0\) FROM "wallet_transactions" WHERE wallet_id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("42.50"))

	sum, err := repo.SumTransactions(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("42.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
}
