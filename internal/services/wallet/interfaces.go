package wallet

import (
	"context"

	"payway/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the main wallet service interface
type Service interface {
	// Wallet management
	CreateWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	SetUseWalletInPayment(ctx context.Context, userID uint, use bool) (*models.Wallet, error)

	// Ledger operations. CreateTransaction is the only way a balance
	// changes.
	CreateTransaction(ctx context.Context, walletID uint, in TransactionInput) (*models.WalletTransaction, error)
	// CreateTransactionForUser resolves the wallet from the database,
	// never from the cache.
	CreateTransactionForUser(ctx context.Context, userID uint, in TransactionInput) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error)
	ReplayBalance(ctx context.Context, walletID uint) (decimal.Decimal, error)
	AuditWallet(ctx context.Context, userID uint) (*Audit, error)

	// CreditReferral rewards referrerID once for bringing in refereeID.
	CreditReferral(ctx context.Context, referrerID, refereeID uint) (*models.WalletTransaction, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}
