package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postDIDComm(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/didcomm-encrypted+json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestDIDCommHandlerDispatchesAcceptedEnvelope(t *testing.T) {
	var received json.RawMessage
	server := NewHTTPServer(func(raw json.RawMessage) error {
		received = raw
		return nil
	})
	testServer := httptest.NewServer(server.DIDCommHandler())
	defer testServer.Close()

	resp := postDIDComm(t, testServer.URL, []byte(`{"id":"m1"}`))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var wire wireResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wire))
	assert.True(t, wire.Success)
	assert.JSONEq(t, `{"id":"m1"}`, string(received))
}

func TestDIDCommHandlerRejectsNonPost(t *testing.T) {
	server := NewHTTPServer(func(raw json.RawMessage) error { return nil })
	testServer := httptest.NewServer(server.DIDCommHandler())
	defer testServer.Close()

	resp, err := http.Get(testServer.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDIDCommHandlerRejectsInvalidJSON(t *testing.T) {
	server := NewHTTPServer(func(raw json.RawMessage) error {
		t.Fatal("dispatch should not be called for malformed JSON")
		return nil
	})
	testServer := httptest.NewServer(server.DIDCommHandler())
	defer testServer.Close()

	resp := postDIDComm(t, testServer.URL, []byte(`not json`))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type fakeStatusError struct{ status int }

func (e *fakeStatusError) Error() string   { return fmt.Sprintf("fake error %d", e.status) }
func (e *fakeStatusError) StatusCode() int { return e.status }

func TestDIDCommHandlerSurfacesDispatchErrorStatus(t *testing.T) {
	server := NewHTTPServer(func(raw json.RawMessage) error {
		return &fakeStatusError{status: http.StatusNotFound}
	})
	testServer := httptest.NewServer(server.DIDCommHandler())
	defer testServer.Close()

	resp := postDIDComm(t, testServer.URL, []byte(`{}`))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var wire wireResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wire))
	assert.False(t, wire.Success)
	assert.Contains(t, wire.Error, "fake error")
}
