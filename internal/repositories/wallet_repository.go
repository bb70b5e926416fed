package repositories

import (
	"context"
	"time"

	"payway/internal/models"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet-related database operations
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal, at time.Time) error
	UpdateSettings(ctx context.Context, id uint, useInPayment bool) error

	CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error
	ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error)
	SumTransactions(ctx context.Context, walletID uint) (decimal.Decimal, error)

	ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error
}
