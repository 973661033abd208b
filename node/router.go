package node

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/tap-x-project/tap/did"
)

// Router resolves a recipient DID to the URL its packed envelope should
// be POSTed to (§4.I): the DID Document's first DIDCommMessaging service
// endpoint, or a configured base URL if the document carries none.
type Router struct {
	resolver *did.Resolver
	baseURL  string

	// sf collapses concurrent resolutions of the same DID into a single
	// did:web lookup (SPEC_FULL.md §4.M).
	sf singleflight.Group
}

// NewRouter builds a Router. baseURL is the fallback used when a
// recipient's DID Document carries no DIDCommMessaging service; it may be
// empty if the deployment only ever talks to agents with a resolvable
// service endpoint.
func NewRouter(resolver *did.Resolver, baseURL string) *Router {
	return &Router{resolver: resolver, baseURL: baseURL}
}

// ResolveEndpoint returns the delivery URL for recipient.
func (r *Router) ResolveEndpoint(ctx context.Context, recipient did.DID) (string, error) {
	v, err, _ := r.sf.Do(string(recipient), func() (interface{}, error) {
		doc, err := r.resolver.Resolve(ctx, recipient)
		if err != nil {
			if r.baseURL != "" {
				return r.fallbackURL(recipient), nil
			}
			return nil, newErr(ErrRouting, "resolving %s: %v", recipient, err)
		}
		if svc, ok := doc.FindService(did.ServiceDIDCommMessaging); ok && svc.ServiceEndpoint != "" {
			return svc.ServiceEndpoint, nil
		}
		if r.baseURL == "" {
			return nil, newErr(ErrRouting, "%s: no DIDCommMessaging service and no base URL fallback configured", recipient)
		}
		return r.fallbackURL(recipient), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Router) fallbackURL(recipient did.DID) string {
	return fmt.Sprintf("%s/agents/%s", r.baseURL, recipient)
}
