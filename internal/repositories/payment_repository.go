package repositories

import (
	"context"

	"payway/internal/models"
)

// PaymentRepository defines the database operations on payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	// GetByIDForUpdate locks the row until the enclosing transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error)
	GetByChargeID(ctx context.Context, chargeID string) (*models.Payment, error)
	SetCharge(ctx context.Context, id uint, chargeID, gateway string) error
	SaveBankResponse(ctx context.Context, id uint, raw []byte) error
	// MarkPaid flips is_paid from false to true and reports whether a row
	// changed.
	MarkPaid(ctx context.Context, id uint) (bool, error)

	ExecuteInTransaction(ctx context.Context, fn func(PaymentRepository) error) error
}
