package handlers

import (
	"context"

	apperrors "payway/internal/errors"
	"payway/internal/logger"
	"payway/internal/models"
	"payway/internal/services/payment"
	"payway/internal/utils"
	"payway/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CallbackProcessor applies raw gateway callbacks.
type CallbackProcessor interface {
	Process(ctx context.Context, raw []byte) (*payment.WebhookResult, error)
}

type PaymentHandler struct {
	paymentService payment.Service
	callbacks      CallbackProcessor
}

func NewPaymentHandler(paymentService payment.Service, callbacks CallbackProcessor) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		callbacks:      callbacks,
	}
}

type createPaymentRequest struct {
	PriceBeforeDiscount string `json:"price_before_discount" validate:"required,money"`
	PriceAfterDiscount  string `json:"price_after_discount" validate:"required,money"`
	Currency            string `json:"currency" validate:"omitempty,iso4217"`
	PaymentType         string `json:"payment_type" validate:"omitempty,oneof=online wallet cash"`
}

// CreatePayment creates a payment owned by the caller.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return response.Unauthorized(c, "invalid claims")
	}

	var input createPaymentRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	p, err := h.paymentService.CreatePayment(c.UserContext(), payment.CreatePaymentInput{
		CustomerID:          claims.UserID,
		PriceBeforeDiscount: decimal.RequireFromString(input.PriceBeforeDiscount),
		PriceAfterDiscount:  decimal.RequireFromString(input.PriceAfterDiscount),
		Currency:            input.Currency,
		PaymentType:         models.PaymentType(input.PaymentType),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, "payment created", p)
}

func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	p, err := h.ownedPayment(c)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "payment retrieved", p)
}

// Checkout opens (or reopens) the provider payment page.
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	p, err := h.ownedPayment(c)
	if err != nil {
		return response.Error(c, err)
	}

	url, err := h.paymentService.InitializeOnlinePayment(c.UserContext(), p.ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "payment initialized", fiber.Map{"payment_url": url})
}

func (h *PaymentHandler) ownedPayment(c *fiber.Ctx) (*models.Payment, error) {
	claims, ok := utils.GetUserClaims(c)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	id, ok := paramID(c, "id")
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	p, err := h.paymentService.GetPayment(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if p.UserID != claims.UserID && !claims.IsAdmin() {
		// do not reveal other customers' payments
		return nil, apperrors.ErrPaymentNotFound
	}
	return p, nil
}

type refundRequest struct {
	Amount string `json:"amount" validate:"omitempty,money"`
	Reason string `json:"reason" validate:"max=255"`
}

// Refund returns money to the payer, fully when amount is omitted.
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, apperrors.ErrPaymentNotFound)
	}
	var input refundRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	amount := decimal.Zero
	if input.Amount != "" {
		amount = decimal.RequireFromString(input.Amount)
	}

	res, err := h.paymentService.Refund(c.UserContext(), id, amount, input.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "refund requested", res)
}

// BankCallback receives provider webhooks. Providers only look at the
// status code: 200 when applied or already applied, 400 when the callback
// is rejected, 500 when it should be retried.
func (h *PaymentHandler) BankCallback(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns
	raw := append([]byte(nil), c.Body()...)

	res, err := h.callbacks.Process(c.UserContext(), raw)
	if err != nil {
		if de, ok := apperrors.As(err); ok && de.Status < fiber.StatusInternalServerError {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fiber.Map{"code": de.Code, "message": de.Message},
			})
		}
		logger.L().Error("callback processing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{"code": "INTERNAL_ERROR", "message": "internal server error"},
		})
	}
	return c.JSON(fiber.Map{"state": res.State})
}

// Redirect sends the payer's browser to the client status page.
func (h *PaymentHandler) Redirect(c *fiber.Ctx) error {
	target, err := h.paymentService.ResolveRedirect(c.UserContext(), c.Queries())
	if err != nil {
		logger.L().Warn("unrecognised payment redirect",
			zap.String("query", string(c.Request().URI().QueryString())),
			zap.Error(err),
		)
	}
	return c.Redirect(target, fiber.StatusFound)
}
