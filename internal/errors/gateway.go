package errors

import "net/http"

var (
	ErrUnsupportedCurrency = &DomainError{
		Code:    "UNSUPPORTED_CURRENCY",
		Message: "no payment gateway supports this currency",
		Status:  http.StatusBadRequest,
	}
	ErrUnknownGateway = &DomainError{
		Code:    "UNKNOWN_GATEWAY",
		Message: "could not determine the payment gateway",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidFactoryInput = &DomainError{
		Code:    "INVALID_FACTORY_INPUT",
		Message: "exactly one of currency or callback payload is required",
		Status:  http.StatusInternalServerError,
	}
	ErrGatewayNotConfigured = &DomainError{
		Code:    "GATEWAY_NOT_CONFIGURED",
		Message: "payment gateway is not configured",
		Status:  http.StatusInternalServerError,
	}
	ErrGatewayHTTP = &DomainError{
		Code:    "GATEWAY_HTTP_ERROR",
		Message: "payment gateway request failed",
		Status:  http.StatusBadGateway,
	}
	ErrCallbackParse = &DomainError{
		Code:    "CALLBACK_PARSE_ERROR",
		Message: "malformed gateway callback",
		Status:  http.StatusBadRequest,
	}
	ErrGatewayMismatch = &DomainError{
		Code:    "GATEWAY_MISMATCH",
		Message: "callback does not come from the payment's gateway",
		Status:  http.StatusBadRequest,
	}
	ErrNotImplemented = &DomainError{
		Code:    "NOT_IMPLEMENTED",
		Message: "operation not supported by this gateway",
		Status:  http.StatusNotImplemented,
	}
)
