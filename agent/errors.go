package agent

import "fmt"

// Error is the §7 domain error shape for the agent package, covering
// Configuration and MessageDropped in addition to errors propagated
// unchanged from envelope/message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newErr(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

const (
	ErrConfiguration  = "Configuration"
	ErrMessageDropped = "MessageDropped"
)
