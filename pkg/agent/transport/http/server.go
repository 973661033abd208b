package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DispatchFunc processes one packed DIDComm envelope addressed to a
// locally registered agent. It is satisfied by (*node.Node).Dispatch; the
// indirection keeps this transport package free of a node import cycle.
type DispatchFunc func(raw json.RawMessage) error

// HTTPServer exposes the §6 POST /didcomm endpoint: it accepts a packed
// DIDComm envelope and hands it to DispatchFunc, reporting success or
// failure as a small JSON body rather than relying on status codes alone.
type HTTPServer struct {
	dispatch DispatchFunc
}

// NewHTTPServer builds a server that hands every accepted envelope to
// dispatch.
func NewHTTPServer(dispatch DispatchFunc) *HTTPServer {
	return &HTTPServer{dispatch: dispatch}
}

// statusCoder lets a dispatch error carry its own HTTP status, matching
// node.Error/tx.Error's Code field to a response code without this
// package depending on either.
type statusCoder interface {
	StatusCode() int
}

// DIDCommHandler returns the handler for POST /didcomm.
//
//  1. Reads the request body as a raw JSON envelope.
//  2. Hands it to DispatchFunc.
//  3. Reports success or failure as a small JSON envelope: 200 on success,
//     400 for an unreadable or invalid body, and otherwise the status
//     statusFor picks for the dispatch error.
func (s *HTTPServer) DIDCommHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
			return
		}
		defer r.Body.Close()

		if !json.Valid(body) {
			s.sendErrorResponse(w, http.StatusBadRequest, fmt.Errorf("invalid JSON"))
			return
		}

		if err := s.dispatch(json.RawMessage(body)); err != nil {
			s.sendErrorResponse(w, statusFor(err), err)
			return
		}

		s.sendSuccessResponse(w)
	})
}

// statusFor maps a dispatch error to an HTTP status. A node or tx domain
// error implementing statusCoder picks its own; anything else is a
// generic server failure.
func statusFor(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

type wireResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *HTTPServer) sendSuccessResponse(w http.ResponseWriter) {
	s.sendJSONResponse(w, http.StatusOK, &wireResponse{Success: true})
}

func (s *HTTPServer) sendErrorResponse(w http.ResponseWriter, status int, err error) {
	s.sendJSONResponse(w, status, &wireResponse{Success: false, Error: err.Error()})
}

func (s *HTTPServer) sendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Failed to encode JSON response: %v\n", err)
	}
}

// ServeHTTP implements http.Handler directly, so an HTTPServer can be
// mounted at a single path without going through DIDCommHandler.
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.DIDCommHandler().ServeHTTP(w, r)
}
