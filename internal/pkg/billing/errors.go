package billing

import (
	"errors"
	"fmt"
)

// Kind classifies billing errors so handlers can map them to HTTP codes
// without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
	KindGateway
)

// Error is the typed error carried across the billing core. Code is a stable
// machine-readable identifier surfaced to clients for localization; Message
// is operator-facing and never contains raw gateway text.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NewAuthorizationError(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NewGatewayError(message string, err error) *Error {
	return &Error{Kind: KindGateway, Code: "GATEWAY_ERROR", Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain. Unknown errors are internal.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable error code from an error chain.
func CodeOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return "INTERNAL_ERROR"
}
