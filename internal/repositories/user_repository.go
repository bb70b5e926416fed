package repositories

import (
	"context"

	"payway/internal/models"
)

type UserRepository interface {
	// GetByID loads the user with its country.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
