package store

import "fmt"

// Error is the §7 "Storage" domain error shape for the store package.
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

// ErrStorage is the only kind this package produces; §7 lists a single
// "Storage" error kind for the persistence layer.
const ErrStorage = "Storage"
