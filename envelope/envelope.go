// Package envelope implements DIDComm v2 pack/unpack (§4.E): building and
// parsing JWS and JWE envelopes around a plain message.
package envelope

import "fmt"

// Mode selects the security wrapping applied to an outbound message.
type Mode string

const (
	ModePlain     Mode = "Plain"
	ModeSigned    Mode = "Signed"
	ModeEncrypted Mode = "Encrypted"
	ModeAuthCrypt Mode = "AuthCrypt"
)

// Error is a domain error raised by pack/unpack.
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

// Error codes, mirroring the component's named failure modes (§7).
const (
	ErrCrypto        = "Crypto"
	ErrDidResolution = "DidResolution"
	ErrParse         = "Parse"
	ErrSerialization = "Serialization"
)

// Metadata describes how an unpacked message arrived, per §4.E's unpack
// return value.
type Metadata struct {
	From            string
	To              []string
	IsAuthenticated bool
	IsEncrypted     bool
}
