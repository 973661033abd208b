package tx

import (
	"fmt"
	"net/http"
)

// Error is the §7 domain error shape for the tx package.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode maps the error to an HTTP status for pkg/agent/transport/http's
// DIDCommHandler: a Validation rejection is a client error, a Dispatch
// failure already moved Status to Error and sent an ErrorBody back.
func (e *Error) StatusCode() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusForbidden
	case ErrDispatch:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func newErr(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

const (
	// ErrValidation marks an inbound message that is well-formed but
	// inapplicable given the transaction's current authorizer set (e.g. an
	// Authorize from a DID that isn't a required authorizer), or any message
	// on a transaction already in a terminal state. It does not move Status
	// to Error.
	ErrValidation = "Validation"

	// ErrDispatch marks an out-of-state or unrecognized transition. Status
	// moves to Error and the caller is expected to send back ErrorBody.
	ErrDispatch = "Dispatch"
)
