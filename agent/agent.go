// Package agent implements the §4.G Agent: an identity owning one primary
// DID (plus any additional DIDs bound to the same key store) that builds,
// sends, and receives TAP messages.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/crypto/keys"
	"github.com/tap-x-project/tap/did"
	"github.com/tap-x-project/tap/envelope"
	"github.com/tap-x-project/tap/keystore"
	"github.com/tap-x-project/tap/message"
)

// Deliverer forwards a packed envelope to its recipients over the network.
// Node implements this to back send_message's deliver=true path.
type Deliverer interface {
	Deliver(ctx context.Context, to []did.DID, packed json.RawMessage) error
}

// EventSink receives the agent-level events send_message/receive_message
// publish (§4.I's event bus is the usual subscriber).
type EventSink interface {
	MessageSent(from did.DID, to []did.DID, msgType string)
	MessageDropped(from did.DID, msgType string, reason string)
}

// Agent is the §4.G Agent: one primary DID, its key material accessed
// through a keystore.Manager, a DID resolver for looking up peers, and the
// hooks (Policy, Deliverer, EventSink) Node wires in.
type Agent struct {
	Primary    did.DID
	Additional []did.DID
	KeyStore   *keystore.Manager
	Resolver   *did.Resolver
	Policy     Policy
	Deliverer  Deliverer
	Events     EventSink

	// Now returns the current Unix timestamp used for created_time. Tests
	// override this; production code leaves it nil and New defaults it to
	// time.Now().Unix.
	Now func() int64
}

// New builds an Agent for primary, defaulting Policy to AllowAll and Now
// to time.Now().Unix. Pass a fixed now for deterministic tests.
func New(primary did.DID, ks *keystore.Manager, resolver *did.Resolver, now func() int64) *Agent {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Agent{
		Primary:  primary,
		KeyStore: ks,
		Resolver: resolver,
		Policy:   AllowAll,
		Now:      now,
	}
}

// CreateMessage builds the outer plain message for body, sent from the
// Agent's primary DID (§4.F: Initiator bodies reuse their transaction id
// as the outer id; replies thread via thid).
func (a *Agent) CreateMessage(body message.Body, transactionID string) (*message.Plain, error) {
	return message.ToDIDComm(body, string(a.Primary), transactionID, a.Now())
}

// SendMessage packs plain for to, selecting AuthCrypt if any recipient
// exposes a key-agreement key, else Signed, and forwards to Deliverer when
// deliver is true (§4.G).
func (a *Agent) SendMessage(ctx context.Context, plain *message.Plain, to []did.DID, deliver bool) (json.RawMessage, *envelope.Metadata, error) {
	plain.To = make([]string, len(to))
	for i, d := range to {
		plain.To[i] = string(d)
	}

	plainBytes, err := json.Marshal(plain)
	if err != nil {
		return nil, nil, fmt.Errorf("agent: marshaling plain message: %w", err)
	}

	encryptable, err := a.anyRecipientHasKeyAgreement(ctx, to)
	if err != nil {
		return nil, nil, err
	}

	signKP, err := a.KeyStore.Lookup(a.Primary)
	if err != nil {
		return nil, nil, newErr(ErrConfiguration, "no signing key for %s: %v", a.Primary, err)
	}

	var packed json.RawMessage
	meta := &envelope.Metadata{From: string(a.Primary), To: plain.To}
	if encryptable {
		agreeKP, agreeKid, err := a.ownAgreementKey(ctx)
		if err != nil {
			return nil, nil, err
		}
		packed, err = envelope.PackAuthCrypt(ctx, a.Resolver, plainBytes, agreeKP, agreeKid, to)
		if err != nil {
			return nil, nil, err
		}
		meta.IsEncrypted = true
		meta.IsAuthenticated = true
	} else {
		signVMID, err := a.ownVerificationMethodID(ctx)
		if err != nil {
			return nil, nil, err
		}
		packed, err = envelope.PackSigned(plainBytes, signKP, signVMID)
		if err != nil {
			return nil, nil, err
		}
		meta.IsAuthenticated = true
	}

	if deliver {
		if a.Deliverer == nil {
			return nil, nil, newErr(ErrConfiguration, "send_message: deliver requested but no Deliverer configured")
		}
		if err := a.Deliverer.Deliver(ctx, to, packed); err != nil {
			return nil, nil, err
		}
	}

	if a.Events != nil {
		a.Events.MessageSent(a.Primary, to, plain.Type)
	}

	return packed, meta, nil
}

// ReceiveMessage unpacks raw, applies Policy, and dispatches the inner
// body to its typed parser. A Deny verdict or an unpack failure (crypto,
// DID resolution) drops the message and emits MessageDropped rather than
// returning an error to the caller's normal success path; the returned
// *Error carries code MessageDropped so callers can distinguish a drop
// from a hard failure.
func (a *Agent) ReceiveMessage(ctx context.Context, raw json.RawMessage) (message.Body, *envelope.Metadata, error) {
	body, meta, err := envelope.Unpack(ctx, raw, a.Resolver, agreementKeyAdapter{ks: a.KeyStore}, a.Primary)
	if err != nil {
		a.drop("", "", err.Error())
		return nil, nil, newErr(ErrMessageDropped, "unpack failed: %v", err)
	}

	var plain message.Plain
	if err := json.Unmarshal(body, &plain); err != nil {
		return nil, nil, fmt.Errorf("agent: decoding plain message: %w", err)
	}

	policy := a.Policy
	if policy == nil {
		policy = AllowAll
	}
	decision := policy(&plain, meta)
	if !decision.Allowed {
		a.drop(plain.From, plain.Type, decision.Reason)
		return nil, meta, newErr(ErrMessageDropped, "denied by policy: %s", decision.Reason)
	}

	parsed, err := message.FromDIDComm(&plain)
	if err != nil {
		return nil, meta, err
	}

	return parsed, meta, nil
}

func (a *Agent) drop(from did.DID, msgType, reason string) {
	if a.Events != nil {
		a.Events.MessageDropped(from, msgType, reason)
	}
}

func (a *Agent) anyRecipientHasKeyAgreement(ctx context.Context, to []did.DID) (bool, error) {
	for _, d := range to {
		doc, err := a.Resolver.Resolve(ctx, d)
		if err != nil {
			return false, newErr(ErrConfiguration, "resolving %s: %v", d, err)
		}
		if len(doc.KeyAgreement) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (a *Agent) ownDocument(ctx context.Context) (*did.Document, error) {
	doc, err := a.Resolver.Resolve(ctx, a.Primary)
	if err != nil {
		return nil, newErr(ErrConfiguration, "resolving own DID %s: %v", a.Primary, err)
	}
	return doc, nil
}

func (a *Agent) ownVerificationMethodID(ctx context.Context) (string, error) {
	doc, err := a.ownDocument(ctx)
	if err != nil {
		return "", err
	}
	if len(doc.Authentication) == 0 {
		return "", newErr(ErrConfiguration, "%s document carries no authentication method", a.Primary)
	}
	return doc.Authentication[0], nil
}

// ownAgreementKey resolves the Agent's own key-agreement verification
// method and derives the matching local KeyPair.
func (a *Agent) ownAgreementKey(ctx context.Context) (sagecrypto.KeyPair, string, error) {
	doc, err := a.ownDocument(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(doc.KeyAgreement) == 0 {
		return nil, "", newErr(ErrConfiguration, "%s document carries no key-agreement method", a.Primary)
	}
	kp, err := (agreementKeyAdapter{ks: a.KeyStore}).Lookup(a.Primary)
	if err != nil {
		return nil, "", newErr(ErrConfiguration, "%v", err)
	}
	return kp, doc.KeyAgreement[0], nil
}

// agreementKeyAdapter satisfies envelope's localAgreementKey by deriving
// an X25519 agreement key from the stored Ed25519 signing key when the
// stored key itself doesn't already support agreement, mirroring how
// did:key synthesizes an Ed25519 DID's "#x25519-synthetic" key-agreement
// method (did/method_key.go).
type agreementKeyAdapter struct {
	ks *keystore.Manager
}

func (a agreementKeyAdapter) Lookup(d did.DID) (sagecrypto.KeyPair, error) {
	kp, err := a.ks.Lookup(d)
	if err != nil {
		return nil, err
	}
	if _, ok := kp.(sagecrypto.KeyAgreer); ok {
		return kp, nil
	}
	if kp.Type() != sagecrypto.KeyTypeEd25519 {
		return nil, newErr(ErrConfiguration, "key for %s (%s) does not support key agreement", d, kp.Type())
	}
	xPriv, err := keys.ConvertEd25519PrivToX25519(kp.PrivateKey())
	if err != nil {
		return nil, newErr(ErrConfiguration, "deriving key-agreement key for %s: %v", d, err)
	}
	return keys.NewX25519KeyPairFromPrivate(xPriv)
}
