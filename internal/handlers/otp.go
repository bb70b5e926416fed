package handlers

import (
	"context"

	"payway/internal/services/otp"
	"payway/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type OTPService interface {
	Send(ctx context.Context, phone string, purpose otp.Purpose) error
	Verify(ctx context.Context, phone string, purpose otp.Purpose, code string) error
}

type OTPHandler struct {
	otpService OTPService
}

func NewOTPHandler(otpService OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

type otpSendRequest struct {
	Phone   string `json:"phone" validate:"required,phone"`
	Purpose string `json:"purpose" validate:"required,oneof=login register reset_password wallet_withdraw change_phone"`
}

type otpVerifyRequest struct {
	Phone   string `json:"phone" validate:"required,phone"`
	Purpose string `json:"purpose" validate:"required,oneof=login register reset_password wallet_withdraw change_phone"`
	Code    string `json:"code" validate:"required,numeric,min=4,max=8"`
}

func (h *OTPHandler) Send(c *fiber.Ctx) error {
	var input otpSendRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	if err := h.otpService.Send(c.UserContext(), input.Phone, otp.Purpose(input.Purpose)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "verification code sent", nil)
}

func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	var input otpVerifyRequest
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	if err := h.otpService.Verify(c.UserContext(), input.Phone, otp.Purpose(input.Purpose), input.Code); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, "verification code accepted", fiber.Map{"verified": true})
}
