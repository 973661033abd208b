package did

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Error is a DID-resolution specific error, surfaced by §7's error
// taxonomy as DidResolution("<message>").
type Error struct {
	Method  string
	Message string
}

func (e *Error) Error() string {
	if e.Method == "" {
		return "did resolution: " + e.Message
	}
	return fmt.Sprintf("did resolution (%s): %s", e.Method, e.Message)
}

func newErr(method, format string, args ...interface{}) *Error {
	return &Error{Method: method, Message: fmt.Sprintf(format, args...)}
}

// MethodResolver resolves a single DID method to a Document.
type MethodResolver interface {
	Resolve(ctx context.Context, did DID) (*Document, error)
}

// Resolver dispatches resolution to the registered MethodResolver for the
// DID's method segment (the second colon-delimited component).
type Resolver struct {
	mu        sync.RWMutex
	resolvers map[string]MethodResolver
}

// NewResolver creates a Resolver with no methods registered. Callers
// typically register "key", "web", "pkh" via Register.
func NewResolver() *Resolver {
	return &Resolver{resolvers: make(map[string]MethodResolver)}
}

// Register installs (or replaces) the resolver for a DID method name,
// e.g. "key", "web", "pkh".
func (r *Resolver) Register(method string, mr MethodResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[method] = mr
}

// Resolve parses the method out of did and dispatches to the registered
// MethodResolver. Malformed inputs never panic; they return *Error.
func (r *Resolver) Resolve(ctx context.Context, did DID) (*Document, error) {
	method, _, err := splitMethod(did)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	mr, ok := r.resolvers[method]
	r.mu.RUnlock()
	if !ok {
		return nil, newErr(method, "no resolver registered for did method %q", method)
	}

	return mr.Resolve(ctx, did)
}

// splitMethod splits a DID into its method name and method-specific ID,
// per the "did:<method>:<method-specific-id>" grammar. Total: malformed
// strings return an error rather than indexing out of range.
func splitMethod(did DID) (method string, msi string, err error) {
	s := string(did)
	if !strings.HasPrefix(s, "did:") {
		return "", "", newErr("", "not a DID: %q", s)
	}
	rest := s[len("did:"):]
	idx := strings.IndexByte(rest, ':')
	if idx <= 0 {
		return "", "", newErr("", "missing method-specific-id in %q", s)
	}
	method = rest[:idx]
	msi = rest[idx+1:]
	if method == "" || msi == "" || strings.HasSuffix(msi, ":") {
		return "", "", newErr(method, "empty method or method-specific-id in %q", s)
	}
	return method, msi, nil
}
