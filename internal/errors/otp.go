package errors

import "net/http"

var (
	ErrRateLimitExceeded = &DomainError{
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "too many verification codes requested, try again later",
		Status:  http.StatusTooManyRequests,
	}
	ErrOtpNotFound = &DomainError{
		Code:    "OTP_NOT_FOUND",
		Message: "verification code expired or not requested",
		Status:  http.StatusBadRequest,
	}
	ErrMaxAttemptsExceeded = &DomainError{
		Code:    "MAX_ATTEMPTS_EXCEEDED",
		Message: "too many incorrect attempts, request a new code",
		Status:  http.StatusTooManyRequests,
	}
	ErrInvalidCode = &DomainError{
		Code:    "INVALID_CODE",
		Message: "incorrect verification code",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidPurpose = &DomainError{
		Code:    "INVALID_OTP_PURPOSE",
		Message: "unknown verification purpose",
		Status:  http.StatusBadRequest,
	}
	ErrSMSDelivery = &DomainError{
		Code:    "SMS_DELIVERY_FAILED",
		Message: "could not deliver the verification code",
		Status:  http.StatusBadGateway,
	}
)
