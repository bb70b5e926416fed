package response

import (
	stderrors "errors"

	apperrors "payway/internal/errors"
	"payway/internal/logger"
	"payway/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	c.Status(fiber.StatusCreated)
	return Success(c, message, data)
}

// Error writes err as {"error": {"code", "message"}}. Only DomainErrors
// reach the client; anything else is logged and reported as INTERNAL_ERROR.
func Error(c *fiber.Ctx, err error) error {
	if de, ok := apperrors.As(err); ok {
		return c.Status(apperrors.StatusOf(de)).JSON(fiber.Map{
			"error": fiber.Map{"code": de.Code, "message": de.Message},
		})
	}

	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fiber.Map{"code": "HTTP_ERROR", "message": fe.Message},
		})
	}

	logger.L().Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{"code": "INTERNAL_ERROR", "message": "internal server error"},
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"code": "BAD_REQUEST", "message": message},
	})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{"code": "UNAUTHORIZED", "message": message},
	})
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, apperrors.ErrForbidden)
}

func ValidationError(c *fiber.Ctx, details []validation.FieldError) error {
	return c.Status(apperrors.ErrValidation.Status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    apperrors.ErrValidation.Code,
			"message": apperrors.ErrValidation.Message,
			"details": details,
		},
	})
}
