package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentType string

const (
	PaymentTypeOnline PaymentType = "online"
	PaymentTypeWallet PaymentType = "wallet"
	PaymentTypeCash   PaymentType = "cash"
)

// Payment is the local record of a single charge attempt.
type Payment struct {
	ID                      uint           `gorm:"primarykey" json:"id"`
	UserID                  uint           `gorm:"index;not null" json:"user_id"`
	User                    *User          `json:"-"`
	PriceBeforeDiscount     Money          `gorm:"embedded;embeddedPrefix:price_before_discount_" json:"price_before_discount"`
	PriceAfterDiscount      Money          `gorm:"embedded;embeddedPrefix:price_after_discount_" json:"price_after_discount"`
	PaymentType             PaymentType    `gorm:"size:16;not null;default:'online'" json:"payment_type"`
	IsPaid                  bool           `gorm:"not null;default:false" json:"is_paid"`
	PaymentChargeID         *string        `gorm:"index" json:"payment_charge_id,omitempty"`
	Gateway                 string         `gorm:"size:16" json:"gateway,omitempty"`
	BankTransactionResponse datatypes.JSON `json:"bank_transaction_response,omitempty"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}
