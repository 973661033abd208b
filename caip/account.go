package caip

import (
	"regexp"
	"strings"
	"sync"
)

var addressRe = regexp.MustCompile(`^[-.%a-zA-Z0-9]{1,128}$`)

// AddressValidator checks an address string against the rules of a
// specific chain namespace (e.g. eip155 requires 0x-prefixed 20-byte hex).
type AddressValidator func(address string) error

var eip155Re = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
var bip122Re = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{25,34}$|^bc1[a-z0-9]{11,71}$`)

// addressValidatorRegistry maps a chain namespace to its pluggable address
// validator. Namespaces not registered fall back to the generic CAIP-10
// address grammar.
type addressValidatorRegistry struct {
	mu         sync.RWMutex
	validators map[string]AddressValidator
}

var defaultAddressValidators = &addressValidatorRegistry{
	validators: map[string]AddressValidator{
		"eip155": func(address string) error {
			if !eip155Re.MatchString(address) {
				return newErr(ErrInvalidAddressFmt, "eip155 address %q: want 0x-prefixed 20-byte hex", address)
			}
			return nil
		},
		"bip122": func(address string) error {
			if !bip122Re.MatchString(address) {
				return newErr(ErrInvalidAddressFmt, "bip122 address %q: want base58/bech32", address)
			}
			return nil
		},
	},
}

// RegisterAddressValidator installs or replaces the validator for a chain
// namespace. Intended for extending CAIP-10 support to additional chains
// without modifying this package.
func RegisterAddressValidator(namespace string, v AddressValidator) {
	defaultAddressValidators.mu.Lock()
	defer defaultAddressValidators.mu.Unlock()
	defaultAddressValidators.validators[namespace] = v
}

func validateAddress(namespace, address string) error {
	if !addressRe.MatchString(address) {
		return newErr(ErrInvalidAddressFmt, "address %q: disallowed characters", address)
	}
	defaultAddressValidators.mu.RLock()
	v, ok := defaultAddressValidators.validators[namespace]
	defaultAddressValidators.mu.RUnlock()
	if !ok {
		return nil
	}
	return v(address)
}

// AccountId identifies a blockchain account per CAIP-10:
// "<ChainId>:<address>", e.g. "eip155:1:0xab16...".
type AccountId struct {
	ChainId ChainId
	Address string
}

// ParseAccountId parses a CAIP-10 string.
func ParseAccountId(s string) (AccountId, error) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return AccountId{}, newErr(ErrInvalidAccountId, "missing address segment in %q", s)
	}
	chainPart, address := s[:idx], s[idx+1:]
	chainID, err := ParseChainId(chainPart)
	if err != nil {
		return AccountId{}, newErr(ErrInvalidAccountId, "chain segment: %v", err)
	}
	if err := validateAddress(chainID.Namespace, address); err != nil {
		return AccountId{}, newErr(ErrInvalidAccountId, "address segment: %v", err)
	}
	return AccountId{ChainId: chainID, Address: address}, nil
}

// String re-assembles the canonical CAIP-10 form.
func (a AccountId) String() string {
	return a.ChainId.String() + ":" + a.Address
}
