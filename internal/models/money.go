package models

import "github.com/shopspring/decimal"

// Money is a decimal amount in a given ISO-4217 currency. It is embedded
// into tables with a column prefix, e.g. price_before_discount_amount.
// The column keeps three decimals so KWD, BHD and OMR amounts are stored
// exactly.
type Money struct {
	Amount   decimal.Decimal `gorm:"type:numeric(20,3);not null;default:0" json:"amount"`
	Currency string          `gorm:"size:3;not null" json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}
