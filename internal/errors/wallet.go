package errors

import "net/http"

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
		Status:  http.StatusBadRequest,
	}
	ErrCurrencyMismatch = &DomainError{
		Code:    "CURRENCY_MISMATCH",
		Message: "amount currency does not match the wallet currency",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidTransactionType = &DomainError{
		Code:    "INVALID_TRANSACTION_TYPE",
		Message: "invalid wallet transaction type",
		Status:  http.StatusBadRequest,
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Status:  http.StatusNotFound,
	}
	ErrWalletExists = &DomainError{
		Code:    "WALLET_EXISTS",
		Message: "wallet already exists",
		Status:  http.StatusConflict,
	}
	ErrDuplicateTransaction = &DomainError{
		Code:    "DUPLICATE_TRANSACTION",
		Message: "transaction has already been recorded",
		Status:  http.StatusConflict,
	}
	ErrReferralNotEligible = &DomainError{
		Code:    "REFERRAL_NOT_ELIGIBLE",
		Message: "referrer is not eligible for a reward",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrUserNotFound = &DomainError{
		Code:    "USER_NOT_FOUND",
		Message: "user not found",
		Status:  http.StatusNotFound,
	}
)
