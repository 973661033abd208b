package node

import (
	"fmt"
	"net/http"
)

// Error is the §7 domain error shape for the node package.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode maps the error to an HTTP status for pkg/agent/transport/http's
// DIDCommHandler.
func (e *Error) StatusCode() int {
	switch e.Code {
	case ErrAgentNotFound:
		return http.StatusNotFound
	case ErrRouting:
		return http.StatusBadGateway
	case ErrConfiguration:
		return http.StatusInternalServerError
	case ErrStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func newErr(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

const (
	// ErrAgentNotFound marks an inbound message addressed to a DID the
	// Node has no registered Agent for.
	ErrAgentNotFound = "AgentNotFound"

	// ErrRouting marks a failure to resolve or reach a recipient's
	// delivery endpoint.
	ErrRouting = "Routing"

	// ErrConfiguration marks a misconfigured Node (registry full, no
	// base URL fallback configured, etc).
	ErrConfiguration = "Configuration"

	// ErrStorage marks a Store failure on the transaction/message/
	// delivery write path.
	ErrStorage = "Storage"
)
