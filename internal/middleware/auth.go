// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"strings"

	"payway/internal/logger"
	"payway/internal/utils"
	"payway/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates bearer tokens and stores the claims in the
// request locals.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		logger.L().Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return response.Unauthorized(c, "invalid token")
	}

	c.Locals(utils.ClaimsKey, claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}
	if !claims.IsAdmin() {
		logger.L().Warn("admin access denied",
			zap.Uint("user_id", claims.UserID),
			zap.String("role", claims.Role),
			zap.String("path", c.Path()),
		)
		return response.Forbidden(c)
	}
	return c.Next()
}
