package repositories

import (
	"context"
	"fmt"

	"payway/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", translate(err))
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) GetByChargeID(ctx context.Context, chargeID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("payment_charge_id = ?", chargeID).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepository) SetCharge(ctx context.Context, id uint, chargeID, gateway string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND payment_charge_id IS NULL", id).
		Updates(map[string]interface{}{
			"payment_charge_id": chargeID,
			"gateway":           gateway,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set payment charge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *paymentRepository) SaveBankResponse(ctx context.Context, id uint, raw []byte) error {
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("bank_transaction_response", datatypes.JSON(raw)).Error
	if err != nil {
		return fmt.Errorf("failed to save bank response: %w", err)
	}
	return nil
}

func (r *paymentRepository) MarkPaid(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND is_paid = ?", id, false).
		Update("is_paid", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *paymentRepository) ExecuteInTransaction(ctx context.Context, fn func(PaymentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&paymentRepository{db: tx})
	})
}
