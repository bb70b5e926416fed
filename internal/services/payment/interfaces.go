package payment

import (
	"context"

	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/services/gateway"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
)

// Service defines the payment service interface
type Service interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*models.Payment, error)
	GetPayment(ctx context.Context, id uint) (*models.Payment, error)
	// InitializeOnlinePayment creates the provider charge and returns the
	// URL the payer must be sent to.
	InitializeOnlinePayment(ctx context.Context, paymentID uint) (string, error)
	// MarkCompleted must be called with the payment row locked through
	// repo. It reports whether is_paid changed.
	MarkCompleted(ctx context.Context, repo repositories.PaymentRepository, payment *models.Payment) (bool, error)
	Refund(ctx context.Context, paymentID uint, amount decimal.Decimal, reason string) (*types.RefundResponse, error)
	// ResolveRedirect returns the client status page for a provider
	// redirect.
	ResolveRedirect(ctx context.Context, query map[string]string) (string, error)
}

// Dependencies required by the payment service
type GatewayFactory interface {
	Create(sel gateway.Selector) (types.Adapter, error)
	Adapter(gw types.GatewayType) (types.Adapter, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

type MetricsCollector interface {
	RecordCharge(gateway, result string)
	RecordWebhook(gateway, state string)
}

type CreatePaymentInput struct {
	CustomerID          uint
	PriceBeforeDiscount decimal.Decimal
	PriceAfterDiscount  decimal.Decimal
	// Currency defaults to the customer's country currency.
	Currency    string
	PaymentType models.PaymentType
}

type Config struct {
	CallbackURL     string
	RedirectURL     string
	ClientStatusURL string
}
