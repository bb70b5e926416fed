package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrLedgerImmutable = errors.New("wallet transactions are append-only")

type Wallet struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	UserID               uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance              Money     `gorm:"embedded;embeddedPrefix:balance_" json:"balance"`
	IsUseWalletInPayment bool      `gorm:"not null;default:false" json:"is_use_wallet_in_payment"`
	LastUpdate           time.Time `json:"last_update"`
	CreatedAt            time.Time `json:"created_at"`
}

type TransactionType string

const (
	TransactionRefund          TransactionType = "REFUND"
	TransactionFine            TransactionType = "FINE"
	TransactionPayout          TransactionType = "PAYOUT"
	TransactionCharging        TransactionType = "CHARGING"
	TransactionOrderPayment    TransactionType = "ORDER_PAYMENT"
	TransactionCancelOrder     TransactionType = "CANCEL_ORDER"
	TransactionShare           TransactionType = "SHARE"
	TransactionCashReceive     TransactionType = "CASH_RECEIVE"
	TransactionReferral        TransactionType = "REFERRAL"
	TransactionReferralPayment TransactionType = "REFERRAL_PAYMENT"
	TransactionReferralRefund  TransactionType = "REFERRAL_REFUND"
)

var transactionTypes = map[TransactionType]struct{}{
	TransactionRefund: {}, TransactionFine: {}, TransactionPayout: {},
	TransactionCharging: {}, TransactionOrderPayment: {}, TransactionCancelOrder: {},
	TransactionShare: {}, TransactionCashReceive: {}, TransactionReferral: {},
	TransactionReferralPayment: {}, TransactionReferralRefund: {},
}

func (t TransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// WalletTransaction is a ledger row. Rows are only ever inserted.
type WalletTransaction struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	WalletID   uint            `gorm:"index;not null" json:"wallet_id"`
	Amount     Money           `gorm:"embedded;embeddedPrefix:amount_" json:"amount"`
	Type       TransactionType `gorm:"size:32;not null" json:"transaction_type"`
	ActionByID *uint           `json:"action_by_id,omitempty"`
	Note       string          `json:"note,omitempty"`
	Attachment *string         `json:"attachment,omitempty"`
	Reference  *string         `gorm:"uniqueIndex" json:"reference,omitempty"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}

func (WalletTransaction) BeforeUpdate(*gorm.DB) error { return ErrLedgerImmutable }
func (WalletTransaction) BeforeDelete(*gorm.DB) error { return ErrLedgerImmutable }
