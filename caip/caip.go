// Package caip implements parsers and validators for the Chain Agnostic
// Improvement Proposal identifier families used throughout TAP: CAIP-2
// chain identifiers, CAIP-10 account identifiers, and CAIP-19 asset
// identifiers.
package caip

import "fmt"

// Error is a domain error raised by identifier parsing/validation.
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

// Error codes, mirroring the component's named failure modes.
const (
	ErrInvalidChainId      = "InvalidChainId"
	ErrInvalidAccountId    = "InvalidAccountId"
	ErrInvalidAssetId      = "InvalidAssetId"
	ErrInvalidNamespace    = "InvalidNamespace"
	ErrInvalidReference    = "InvalidReference"
	ErrInvalidAddressFmt   = "InvalidAddressFormat"
)
