// Package tx implements the §4.H per-transaction state machine: the
// Transfer/Payment lifecycle table, the Connect handshake, and the
// authorization predicate with its tie-break rule. A Machine holds only
// in-memory state; persisting it after every Apply is the Node's job.
package tx

import (
	"sort"
	"strings"

	"github.com/tap-x-project/tap/message"
)

// Type identifies which lifecycle table governs a transaction.
type Type string

const (
	TypeTransfer Type = "Transfer"
	TypePayment  Type = "Payment"
	TypeConnect  Type = "Connect"
)

// Status is a transaction's position in its lifecycle table (§4.H).
type Status string

const (
	StatusProposed   Status = "Proposed"
	StatusAuthorized Status = "Authorized"
	StatusSettled    Status = "Settled"
	StatusCompleted  Status = "Completed"
	StatusRejected   Status = "Rejected"
	StatusCancelled  Status = "Cancelled"
	StatusError      Status = "Error"

	StatusRequested Status = "Requested"
	StatusConfirmed Status = "Confirmed"
)

// Terminal reports whether no inbound message may transition out of s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted, StatusConfirmed, StatusError:
		return true
	}
	return false
}

// authorization is the last decision received from one required
// authorizer, kept so a resend can be judged against the §4.H tie-break.
type authorization struct {
	allow       bool
	createdTime int64
	msgID       string
}

// wins reports whether a decision received at (createdTime, msgID) should
// replace the one already on file: a later created_time wins outright; on
// a tie, the lexicographically later id wins.
func wins(createdTime int64, msgID string, existing authorization) bool {
	if createdTime != existing.createdTime {
		return createdTime > existing.createdTime
	}
	return msgID > existing.msgID
}

// Machine is one transaction's evolving record, shaped after the §3
// "Transaction record" (transaction_id, type, status, initiator_did,
// counterparties, body, timestamps, settlement_id).
type Machine struct {
	TransactionID string
	Type          Type
	Status        Status
	InitiatorDID  string
	SettlementID  string
	CreatedAt     int64
	UpdatedAt     int64

	requiredAuthorizers map[string]struct{}
	authorizations      map[string]authorization
}

// New starts a Machine in its lifecycle's initial state: Requested for
// Connect, Proposed otherwise. agents seeds the required-authorizer set
// from the initiator message's own agents list.
func New(transactionID string, typ Type, initiatorDID string, agents []message.Agent, createdAt int64) *Machine {
	m := &Machine{
		TransactionID:       transactionID,
		Type:                typ,
		InitiatorDID:        initiatorDID,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
		requiredAuthorizers: make(map[string]struct{}, len(agents)),
		authorizations:      make(map[string]authorization),
	}
	if typ == TypeConnect {
		m.Status = StatusRequested
	} else {
		m.Status = StatusProposed
	}
	for _, a := range agents {
		m.requiredAuthorizers[a.ID] = struct{}{}
	}
	return m
}

// RequiredAuthorizers returns the DIDs whose Authorize is currently needed
// before the transaction can become Authorized, in sorted order.
func (m *Machine) RequiredAuthorizers() []string {
	out := make([]string, 0, len(m.requiredAuthorizers))
	for d := range m.requiredAuthorizers {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// allowedInbound is the §4.H per-state table of admissible message types,
// keyed by the bare name after MessageType()'s "#".
var allowedInbound = map[Status]map[string]bool{
	StatusProposed: {
		"UpdateParty": true, "UpdatePolicies": true, "AddAgents": true,
		"ReplaceAgent": true, "RemoveAgent": true, "Authorize": true,
		"Reject": true, "Cancel": true,
	},
	StatusAuthorized: {"Settle": true, "Reject": true, "Cancel": true},
	StatusSettled:    {"Complete": true},
	StatusRequested:  {"ConfirmRelationship": true, "Reject": true},
}

func messageTypeName(body message.Body) string {
	t := body.MessageType()
	if i := strings.LastIndexByte(t, '#'); i >= 0 {
		return t[i+1:]
	}
	return t
}

// Apply transitions m on receipt of body, validated and sent by from at
// createdTime, carried on the enclosing plain message identified by
// msgID. An out-of-state or unrecognized transition sets Status to Error
// and returns a *Error with code Dispatch; the caller is expected to send
// an ErrorBody back to the last sender. A message on a transaction already
// in a terminal state, and an Authorize from a DID outside the
// required-authorizer set, are rejected with code Validation and leave
// Status untouched, per §8.
func (m *Machine) Apply(body message.Body, from string, createdTime int64, msgID string) error {
	if m.Status.Terminal() {
		return newErr(ErrValidation, "transaction %s is terminal in state %s", m.TransactionID, m.Status)
	}

	typeName := messageTypeName(body)
	if !allowedInbound[m.Status][typeName] {
		return m.dispatchFail("%s not allowed in state %s", typeName, m.Status)
	}

	switch b := body.(type) {
	case *message.UpdateParty:
		// recorded by the caller's message log; no state change.
	case *message.UpdatePolicies:
		// recorded by the caller's message log; no state change.
	case *message.AddAgents:
		for _, a := range b.Agents {
			m.requiredAuthorizers[a.ID] = struct{}{}
		}
	case *message.ReplaceAgent:
		delete(m.requiredAuthorizers, b.Original)
		delete(m.authorizations, b.Original)
		m.requiredAuthorizers[b.Replacement.ID] = struct{}{}
	case *message.RemoveAgent:
		delete(m.requiredAuthorizers, b.Agent)
		delete(m.authorizations, b.Agent)
	case *message.Authorize:
		if err := m.recordAuthorization(from, true, createdTime, msgID); err != nil {
			return err
		}
		if m.authorized() {
			m.Status = StatusAuthorized
		}
	case *message.Reject:
		if m.Type != TypeConnect {
			if _, required := m.requiredAuthorizers[from]; required {
				if err := m.recordAuthorization(from, false, createdTime, msgID); err != nil {
					return err
				}
			}
		}
		m.Status = StatusRejected
	case *message.Cancel:
		m.Status = StatusCancelled
	case *message.Settle:
		m.SettlementID = b.SettlementId
		m.Status = StatusSettled
	case *message.Complete:
		if m.Type != TypePayment {
			return m.dispatchFail("Complete not allowed for %s transaction %s", m.Type, m.TransactionID)
		}
		m.Status = StatusCompleted
	case *message.ConfirmRelationship:
		m.Status = StatusConfirmed
	default:
		return m.dispatchFail("unhandled message type %s", typeName)
	}

	m.UpdatedAt = createdTime
	return nil
}

// recordAuthorization stores from's decision if it is a required
// authorizer and the decision wins the §4.H tie-break against any prior
// decision already on file for from.
func (m *Machine) recordAuthorization(from string, allow bool, createdTime int64, msgID string) error {
	if _, required := m.requiredAuthorizers[from]; !required {
		return newErr(ErrValidation, "authorize from %s: not a required authorizer of %s", from, m.TransactionID)
	}
	if existing, ok := m.authorizations[from]; ok && !wins(createdTime, msgID, existing) {
		return nil
	}
	m.authorizations[from] = authorization{allow: allow, createdTime: createdTime, msgID: msgID}
	return nil
}

// authorized reports whether every required authorizer's latest recorded
// decision is Authorize and none is a standing Reject.
func (m *Machine) authorized() bool {
	if len(m.requiredAuthorizers) == 0 {
		return false
	}
	for d := range m.requiredAuthorizers {
		a, ok := m.authorizations[d]
		if !ok || !a.allow {
			return false
		}
	}
	return true
}

func (m *Machine) dispatchFail(format string, args ...interface{}) error {
	m.Status = StatusError
	return newErr(ErrDispatch, format, args...)
}

// AuthorizationRecord is the persistable form of one required
// authorizer's last recorded decision.
type AuthorizationRecord struct {
	Allow       bool   `json:"allow"`
	CreatedTime int64  `json:"createdTime"`
	MessageID   string `json:"messageId"`
}

// Snapshot is a Machine's persistable state beyond the plain transaction
// row: the required-authorizer set and recorded decisions, so the §4.H
// authorization predicate is re-evaluable after a process restart
// without replaying message history (§3 [FULL]).
type Snapshot struct {
	RequiredAuthorizers []string                       `json:"requiredAuthorizers"`
	Authorizations      map[string]AuthorizationRecord `json:"authorizations"`
}

// Snapshot captures m's authorizer set and recorded decisions.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		RequiredAuthorizers: m.RequiredAuthorizers(),
		Authorizations:      make(map[string]AuthorizationRecord, len(m.authorizations)),
	}
	for d, a := range m.authorizations {
		s.Authorizations[d] = AuthorizationRecord{Allow: a.allow, CreatedTime: a.createdTime, MessageID: a.msgID}
	}
	return s
}

// Restore rebuilds a Machine from a persisted transaction row and its
// Snapshot.
func Restore(transactionID string, typ Type, status Status, initiatorDID, settlementID string, createdAt, updatedAt int64, snap Snapshot) *Machine {
	m := &Machine{
		TransactionID:       transactionID,
		Type:                typ,
		Status:              status,
		InitiatorDID:        initiatorDID,
		SettlementID:        settlementID,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
		requiredAuthorizers: make(map[string]struct{}, len(snap.RequiredAuthorizers)),
		authorizations:      make(map[string]authorization, len(snap.Authorizations)),
	}
	for _, d := range snap.RequiredAuthorizers {
		m.requiredAuthorizers[d] = struct{}{}
	}
	for d, a := range snap.Authorizations {
		m.authorizations[d] = authorization{allow: a.Allow, createdTime: a.CreatedTime, msgID: a.MessageID}
	}
	return m
}
