package did

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// WebResolver implements did:web resolution: fetch
// https://<domain>/.well-known/did.json (or the path-form document for a
// did with additional segments), subject to a bounded timeout.
type WebResolver struct {
	Client  *http.Client
	Timeout time.Duration

	group singleflight.Group
}

// NewWebResolver creates a did:web MethodResolver with the given HTTP
// client and per-request timeout (zero Timeout means 30s, the default
// network-call timeout).
func NewWebResolver(client *http.Client, timeout time.Duration) *WebResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebResolver{Client: client, Timeout: timeout}
}

func (r *WebResolver) Resolve(ctx context.Context, did DID) (*Document, error) {
	method, msi, err := splitMethod(did)
	if err != nil {
		return nil, err
	}
	if method != "web" {
		return nil, newErr("web", "not a did:web: %s", did)
	}

	docURL, err := webDocumentURL(msi)
	if err != nil {
		return nil, newErr("web", "%v", err)
	}

	// Concurrent resolutions of the same DID collapse into one HTTP fetch.
	v, err, _ := r.group.Do(docURL, func() (interface{}, error) {
		return r.fetch(ctx, docURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

func (r *WebResolver) fetch(ctx context.Context, docURL string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, newErr("web", "building request: %v", err)
	}
	req.Header.Set("Accept", "application/did+json, application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, newErr("web", "fetching %s: %v", docURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newErr("web", "%s returned status %d", docURL, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, newErr("web", "invalid did document JSON: %v", err)
	}
	if doc.ID == "" {
		return nil, newErr("web", "did document missing required field \"id\"")
	}

	return &doc, nil
}

// webDocumentURL converts a did:web method-specific-id into the
// well-known document URL per the did:web spec: colons separate path
// segments, the domain and each segment are percent-decoded (so a port
// is written %3A inside the domain), and a bare domain resolves to
// /.well-known/did.json.
func webDocumentURL(msi string) (string, error) {
	parts := strings.Split(msi, ":")
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("empty path segment in did:web method-specific-id %q", msi)
		}
	}

	domain, err := url.QueryUnescape(parts[0])
	if err != nil || domain == "" {
		return "", fmt.Errorf("invalid domain in did:web: %q", msi)
	}

	if len(parts) == 1 {
		return "https://" + domain + "/.well-known/did.json", nil
	}

	segments := make([]string, len(parts)-1)
	for i, p := range parts[1:] {
		decoded, err := url.QueryUnescape(p)
		if err != nil {
			return "", fmt.Errorf("invalid path segment %q in did:web: %v", p, err)
		}
		segments[i] = decoded
	}
	return "https://" + domain + "/" + strings.Join(segments, "/") + "/did.json", nil
}
