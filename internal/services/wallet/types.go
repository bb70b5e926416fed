package wallet

import (
	"time"

	"payway/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds configuration for wallet operations
type Config struct {
	Policy NegativeBalancePolicy
	// ReferralReward is credited to the referrer in the wallet's currency.
	ReferralReward decimal.Decimal
	CacheDuration  time.Duration
}

// TransactionInput describes one ledger entry. Amount is signed: positive
// credits the wallet, negative debits it.
type TransactionInput struct {
	Amount decimal.Decimal
	// Currency must match the wallet when set.
	Currency   string
	Type       models.TransactionType
	Note       string
	ActionByID *uint
	Attachment *string
	// Reference makes the entry idempotent; a second entry with the same
	// reference fails with DUPLICATE_TRANSACTION.
	Reference *string
}

// Audit compares the stored balance with the replayed ledger, both read
// from the database under the wallet's row lock.
type Audit struct {
	WalletID   uint            `json:"wallet_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Consistent bool            `json:"consistent"`
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordLedgerEntry(txType, result string)
}
