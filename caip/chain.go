package caip

import (
	"regexp"
	"strings"
)

var (
	namespaceRe = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
	referenceRe = regexp.MustCompile(`^[-_a-zA-Z0-9]{1,32}$`)
)

// ChainId identifies a blockchain namespace+network per CAIP-2:
// "<namespace>:<reference>", e.g. "eip155:1".
type ChainId struct {
	Namespace string
	Reference string
}

// ParseChainId parses a CAIP-2 string. Parsing is total: malformed input
// always returns a non-nil error, never panics or indexes out of range.
func ParseChainId(s string) (ChainId, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return ChainId{}, newErr(ErrInvalidChainId, "missing ':' in %q", s)
	}
	ns, ref := s[:idx], s[idx+1:]
	if !namespaceRe.MatchString(ns) {
		return ChainId{}, newErr(ErrInvalidNamespace, "namespace %q", ns)
	}
	if !referenceRe.MatchString(ref) {
		return ChainId{}, newErr(ErrInvalidReference, "reference %q", ref)
	}
	return ChainId{Namespace: ns, Reference: ref}, nil
}

// String re-assembles the canonical CAIP-2 form.
func (c ChainId) String() string {
	return c.Namespace + ":" + c.Reference
}

// IsZero reports whether c is the zero value.
func (c ChainId) IsZero() bool {
	return c.Namespace == "" && c.Reference == ""
}
