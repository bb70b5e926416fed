package errors

import "net/http"

var (
	ErrInvalidConfirmationKey = &DomainError{
		Code:    "INVALID_CONFIRMATION_KEY",
		Message: "invalid callback",
		Status:  http.StatusBadRequest,
	}
	ErrPaymentNotFound = &DomainError{
		Code:    "PAYMENT_NOT_FOUND",
		Message: "payment not found",
		Status:  http.StatusNotFound,
	}
	ErrPaymentAlreadyPaid = &DomainError{
		Code:    "PAYMENT_ALREADY_PAID",
		Message: "payment is already paid",
		Status:  http.StatusConflict,
	}
	ErrPaymentNotPaid = &DomainError{
		Code:    "PAYMENT_NOT_PAID",
		Message: "payment has not been paid",
		Status:  http.StatusConflict,
	}
	ErrChargeAlreadyCreated = &DomainError{
		Code:    "CHARGE_ALREADY_CREATED",
		Message: "a charge already exists for this payment",
		Status:  http.StatusConflict,
	}
	ErrNotOnlinePayment = &DomainError{
		Code:    "NOT_ONLINE_PAYMENT",
		Message: "payment is not an online payment",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidPrice = &DomainError{
		Code:    "INVALID_PRICE",
		Message: "price after discount must be positive and not exceed the price before discount",
		Status:  http.StatusBadRequest,
	}
	ErrForbidden = &DomainError{
		Code:    "FORBIDDEN",
		Message: "insufficient permissions",
		Status:  http.StatusForbidden,
	}
	ErrValidation = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
		Status:  http.StatusBadRequest,
	}
)
