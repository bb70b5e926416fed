// Package types holds the provider independent values exchanged with
// payment gateway adapters.
package types

import (
	"context"

	"github.com/shopspring/decimal"
)

type GatewayType string

const (
	GatewayTap      GatewayType = "tap"
	GatewayPaymob   GatewayType = "paymob"
	GatewayStripe   GatewayType = "stripe"
	GatewayRazorpay GatewayType = "razorpay"
)

// ChargeRequest is always expressed in major units.
type ChargeRequest struct {
	Amount   decimal.Decimal
	Currency string
	// PhoneCountryCode is the dial code without "+", PhoneNumber the
	// national number.
	PhoneCountryCode string
	PhoneNumber      string
	OrderID          string
	CallbackURL      string
	RedirectURL      string
	FirstName        string
	LastName         string
}

type ChargeResponse struct {
	PaymentURL string
	PaymentID  string
}

type PaymentStatusCallback struct {
	OrderID          string
	ConfirmationKey  string
	Status           string
	IsCompleted      bool
	GatewayType      GatewayType
	GatewayPaymentID string
}

type RefundResponse struct {
	IsSuccess bool
	RefundID  string
	Status    string
}

type ChargeStatusResponse struct {
	Status     string
	PaymentURL string
	IsPaid     bool
}

// Adapter is the uniform interface over a provider's wire protocol.
type Adapter interface {
	Type() GatewayType
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	// ExtractPaymentCallback parses a raw callback body. It performs no I/O.
	ExtractPaymentCallback(raw []byte) (*PaymentStatusCallback, error)
	RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal, currency, reason string) (*RefundResponse, error)
	GetChargeStatus(ctx context.Context, chargeID string) (*ChargeStatusResponse, error)
}
