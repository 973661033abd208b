// Package message implements the TAP typed message bodies (§4.F) and the
// DIDComm v2 plain message envelope that carries them.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Plain is the canonical in-memory DIDComm v2 plain message.
type Plain struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Typ           string          `json:"typ,omitempty"`
	Body          json.RawMessage `json:"body"`
	From          string          `json:"from,omitempty"`
	To            []string        `json:"to,omitempty"`
	Thid          string          `json:"thid,omitempty"`
	Pthid         string          `json:"pthid,omitempty"`
	CreatedTime   int64           `json:"created_time,omitempty"`
	ExpiresTime   int64           `json:"expires_time,omitempty"`
	Attachments   []Attachment    `json:"attachments,omitempty"`
	ExtraHeaders  map[string]any  `json:"-"`
}

// PlainTyp is the typ header for an unsigned, unencrypted plain message.
const PlainTyp = "application/didcomm-plain+json"

// Attachment carries an opaque payload (IVMS-101 data, a verifiable
// presentation, etc.) alongside a typed TAP body.
type Attachment struct {
	ID          string          `json:"id"`
	MediaType   string          `json:"media_type"`
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description,omitempty"`
}

// Body is implemented by every typed TAP message body (§4.F).
type Body interface {
	// MessageType returns the URL-form TAP message type, e.g.
	// "https://tap.rsvp/schema/1.0#Transfer".
	MessageType() string

	// Validate checks the body's invariants per §4.F.
	Validate() error
}

// Initiator is implemented by every body that carries a transaction id.
// ToDIDComm treats it as opening a new transaction (Transfer, Payment,
// Connect built through their constructors) only when TransactionID() is
// non-empty: the outer plain message's id then equals that transaction id,
// rather than a fresh UUID threaded via thid.
type Initiator interface {
	Body
	TransactionID() string
}

// ToDIDComm builds the outer plain message for body, sent from "from".
// Per §4.F: an Initiator's id equals its transaction id; any other body
// gets a fresh UUID v4 for id, with thid set to transactionID.
func ToDIDComm(body Body, from string, transactionID string, now int64) (*Plain, error) {
	if err := body.Validate(); err != nil {
		return nil, fmt.Errorf("message: invalid %s body: %w", body.MessageType(), err)
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("message: marshaling %s body: %w", body.MessageType(), err)
	}

	p := &Plain{
		Type:        body.MessageType(),
		Typ:         PlainTyp,
		Body:        bodyJSON,
		From:        from,
		CreatedTime: now,
	}

	// Every transaction body implements TransactionID(), so the Initiator assertion
	// alone can't tell a transaction-opening body from a continuation:
	// only a true initiator has that method return non-empty before the
	// message is ever received (its transactionID is set by a dedicated
	// constructor, not by parsing).
	if initiator, ok := body.(Initiator); ok && initiator.TransactionID() != "" {
		p.ID = initiator.TransactionID()
	} else {
		p.ID = uuid.NewString()
		p.Thid = transactionID
	}

	return p, nil
}

// TransactionID resolves the thread key for a plain message: its own id
// if it's an initiator message (no thid set), else its thid.
func (p *Plain) TransactionID() string {
	if p.Thid != "" {
		return p.Thid
	}
	return p.ID
}
