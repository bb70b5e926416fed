package utils

import (
	"payway/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber.Ctx locals key holding *models.UserClaims.
const ClaimsKey = "claims"

// GetUserClaims extracts the user claims stored by the auth middleware.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}
