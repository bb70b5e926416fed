// Package errors defines the stable (code, message) pairs returned to API
// clients and the typed errors raised by payment gateway adapters.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// DomainError is a user-facing error with a stable code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// New creates a DomainError.
func New(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, Status: status}
}

// As extracts the DomainError carried by err, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	if de, ok := As(err); ok && de.Status != 0 {
		return de.Status
	}
	return http.StatusInternalServerError
}

// GatewayHTTPError is returned when a provider answers with a non-2xx status
// or cannot be reached at all (StatusCode 0).
type GatewayHTTPError struct {
	Gateway    string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayHTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: gateway request failed: %v", e.Gateway, e.Err)
	}
	return fmt.Sprintf("%s: gateway responded with status %d: %s", e.Gateway, e.StatusCode, e.Body)
}

func (e *GatewayHTTPError) Unwrap() error {
	return ErrGatewayHTTP
}

// CallbackParseError is returned when a callback payload is missing a
// required field or is not valid JSON.
type CallbackParseError struct {
	Gateway string
	Field   string
	Err     error
}

func (e *CallbackParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s callback: cannot parse %s: %v", e.Gateway, e.Field, e.Err)
	}
	return fmt.Sprintf("%s callback: missing or invalid %s", e.Gateway, e.Field)
}

func (e *CallbackParseError) Unwrap() error {
	return ErrCallbackParse
}
