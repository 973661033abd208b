package did

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebResolverFetchesWellKnownDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/did.json", r.URL.Path)
		doc := Document{ID: "did:web:example.com"}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer srv.Close()

	resolver := NewWebResolver(srv.Client(), 5*time.Second)

	// Exercise the URL construction path directly since the test server
	// isn't reachable under the real "example.com" host.
	docURL, err := webDocumentURL("example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/.well-known/did.json", docURL)

	doc, err := resolver.fetch(context.Background(), srv.URL+"/.well-known/did.json")
	require.NoError(t, err)
	assert.Equal(t, DID("did:web:example.com"), doc.ID)
}

func TestWebResolverPathForm(t *testing.T) {
	docURL, err := webDocumentURL("example.com:user:alice")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/user/alice/did.json", docURL)
}

func TestWebResolverMalformedInputs(t *testing.T) {
	cases := []string{"", ":", "example.com::path"}
	for _, c := range cases {
		_, err := webDocumentURL(c)
		assert.Error(t, err, "expected error for %q", c)
	}
}

func TestWebResolverNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resolver := NewWebResolver(srv.Client(), 5*time.Second)
	_, err := resolver.fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestWebResolverInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	resolver := NewWebResolver(srv.Client(), 5*time.Second)
	_, err := resolver.fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}
