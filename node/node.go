// Package node implements the §4.I Node: the agent registry, router,
// delivery tracking with retry, and event bus that turn a set of local
// Agents into a running TAP participant, persisting transaction and
// message history through node/store.
package node

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tap-x-project/tap/agent"
	"github.com/tap-x-project/tap/did"
	"github.com/tap-x-project/tap/envelope"
	"github.com/tap-x-project/tap/message"
	"github.com/tap-x-project/tap/node/store"
	"github.com/tap-x-project/tap/tx"
)

// Config tunes a Node's bounded registry, router, and delivery policy.
type Config struct {
	// MaxAgents bounds the agent registry (§4.I). Zero means unbounded.
	MaxAgents int
	// BaseURL is the Router's fallback delivery endpoint for recipients
	// whose DID Document carries no DIDCommMessaging service.
	BaseURL string
	Delivery DeliveryConfig
}

// Node is the §4.I component: it owns the KeyStore handle indirectly
// (through each registered Agent), the transaction table, and the
// delivery table (§3 Ownership). It implements agent.Deliverer and
// agent.EventSink so a registered Agent's SendMessage/ReceiveMessage
// calls route through it transparently.
type Node struct {
	mu        sync.Mutex
	agents    map[did.DID]*agent.Agent
	maxAgents int

	store  store.Store
	router *Router
	client *DeliveryClient
	events *EventBus

	txLocksMu sync.Mutex
	txLocks   map[string]*sync.Mutex
}

// New builds a Node over st, resolving recipients through resolver.
func New(st store.Store, resolver *did.Resolver, cfg Config) *Node {
	if cfg.Delivery == (DeliveryConfig{}) {
		cfg.Delivery = DefaultDeliveryConfig()
	}
	return &Node{
		agents:    make(map[did.DID]*agent.Agent),
		maxAgents: cfg.MaxAgents,
		store:     st,
		router:    NewRouter(resolver, cfg.BaseURL),
		client:    NewDeliveryClient(cfg.Delivery.RequestTimeout),
		events:    NewEventBus(),
		txLocks:   make(map[string]*sync.Mutex),
	}
}

// Events returns the Node's event bus, for subscribing to
// MessageReceived/MessageSent/MessageDropped/DeliveryFailed.
func (n *Node) Events() *EventBus { return n.events }

// Scheduler builds the retry Scheduler for this Node's store.
func (n *Node) Scheduler() *Scheduler {
	return NewScheduler(n.store, n.client, n.events, DefaultDeliveryConfig())
}

// RegisterAgent adds a to the bounded registry, wiring itself in as the
// Agent's Deliverer and EventSink. Registering a DID already present, or
// exceeding MaxAgents, is rejected (§4.I).
func (n *Node) RegisterAgent(a *agent.Agent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.agents[a.Primary]; exists {
		return newErr(ErrConfiguration, "agent %s is already registered", a.Primary)
	}
	if n.maxAgents > 0 && len(n.agents) >= n.maxAgents {
		return newErr(ErrConfiguration, "agent registry full (max_agents=%d)", n.maxAgents)
	}

	a.Deliverer = n
	a.Events = n.events
	n.agents[a.Primary] = a
	return nil
}

// Agent returns the registered agent for d, or nil.
func (n *Node) Agent(d did.DID) *agent.Agent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.agents[d]
}

// Deliver implements agent.Deliverer: it resolves each recipient's
// endpoint and fans the POST out concurrently with errgroup
// (SPEC_FULL.md §4.M), recording a delivery row per recipient.
func (n *Node) Deliver(ctx context.Context, to []did.DID, packed json.RawMessage) error {
	msgID := uuid.NewString()
	txID := plainTransactionID(packed)
	if err := n.store.PutMessage(&store.Message{
		ID: msgID, TransactionID: txID, Direction: store.DirectionOutbound,
		Type: plainType(packed), Envelope: packed, CreatedAt: time.Now(),
	}); err != nil {
		return newErr(ErrStorage, "logging outbound message: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, recipient := range to {
		recipient := recipient
		g.Go(func() error {
			return n.deliverOne(gctx, msgID, recipient, packed)
		})
	}
	return g.Wait()
}

func (n *Node) deliverOne(ctx context.Context, msgID string, recipient did.DID, packed json.RawMessage) error {
	url, err := n.router.ResolveEndpoint(ctx, recipient)
	if err != nil {
		return err
	}

	now := time.Now()
	d := &store.Delivery{
		ID: uuid.NewString(), MessageID: msgID, RecipientDID: string(recipient),
		DeliveryURL: url, Status: store.DeliveryPending, CreatedAt: now, UpdatedAt: now,
	}
	if err := n.store.PutDelivery(d); err != nil {
		return newErr(ErrStorage, "recording delivery to %s: %v", recipient, err)
	}

	status, err := n.client.Post(ctx, url, packed)
	d.UpdatedAt = time.Now()
	if err != nil || status < 200 || status >= 300 {
		d.Status = store.DeliveryFailed
		d.LastHTTPStatus = status
		if err != nil {
			d.Error = err.Error()
		} else {
			d.Error = "delivery endpoint returned non-2xx status"
		}
		_ = n.store.UpdateDelivery(d)
		if n.events != nil {
			n.events.Publish(Event{Type: EventDeliveryFailed, TransactionID: "", From: recipient, Reason: d.Error, Time: d.UpdatedAt})
		}
		return nil // delivery failure is a retry-path concern, not a caller error (§7).
	}

	d.Status = store.DeliverySuccess
	d.LastHTTPStatus = status
	delivered := d.UpdatedAt
	d.DeliveredAt = &delivered
	return n.store.UpdateDelivery(d)
}

// Dispatch handles one inbound wire message: it peeks the addressed
// recipients, selects the first locally registered agent among them
// (§4.I), and drives that agent's receive pipeline followed by the
// transaction state machine.
func (n *Node) Dispatch(ctx context.Context, raw json.RawMessage) error {
	candidates, err := envelope.PeekRecipients(raw)
	if err != nil {
		n.events.Publish(Event{Type: EventMessageDropped, Reason: err.Error(), Time: time.Now()})
		return newErr(ErrAgentNotFound, "peeking recipients: %v", err)
	}

	localDID, localAgent := n.firstLocal(candidates)
	if localAgent == nil {
		return newErr(ErrAgentNotFound, "no locally registered agent among recipients %v", candidates)
	}

	body, meta, err := localAgent.ReceiveMessage(ctx, raw)
	if err != nil {
		// ReceiveMessage already published MessageDropped via the
		// shared EventBus; nothing further to do.
		return err
	}

	n.events.Publish(Event{Type: EventMessageReceived, From: did.DID(meta.From), To: []did.DID{localDID}, MessageType: bareType(body.MessageType()), Time: time.Now()})

	txID := transactionIDOf(body)
	if txID == "" {
		return nil // not a transaction-scoped message (e.g. TrustPing)
	}

	return n.applyToTransaction(ctx, localAgent, body, meta, txID, raw)
}

func (n *Node) firstLocal(candidates []string) (did.DID, *agent.Agent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range candidates {
		d := did.DID(c)
		if a, ok := n.agents[d]; ok {
			return d, a
		}
	}
	return "", nil
}

// applyToTransaction loads (or creates) the Machine for txID, applies
// body under that transaction's serialization lock, persists the result,
// and — on a Dispatch-kind failure — sends an Error body back to the
// last sender (§4.H, §7).
func (n *Node) applyToTransaction(ctx context.Context, a *agent.Agent, body message.Body, meta *envelope.Metadata, txID string, raw json.RawMessage) error {
	lock := n.txLock(txID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	if err := n.store.PutMessage(&store.Message{
		ID: uuid.NewString(), TransactionID: txID, Direction: store.DirectionInbound,
		Type: bareType(body.MessageType()), Envelope: raw, CreatedAt: now,
	}); err != nil {
		return newErr(ErrStorage, "logging inbound message: %v", err)
	}

	row, err := n.store.GetTransaction(txID)
	if err != nil {
		return newErr(ErrStorage, "loading transaction %s: %v", txID, err)
	}

	var machine *tx.Machine
	var bodyBytes []byte
	if row == nil {
		typ, agents, ok := newTransactionParams(body)
		if !ok {
			return newErr(ErrAgentNotFound, "unrecognized transaction %s: no matching transaction and %s does not open one", txID, body.MessageType())
		}
		machine = tx.New(txID, typ, meta.From, agents, now.Unix())
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return newErr(ErrStorage, "encoding transaction body for %s: %v", txID, err)
		}
	} else {
		var snap tx.Snapshot
		if len(row.State) > 0 {
			if err := json.Unmarshal(row.State, &snap); err != nil {
				return newErr(ErrStorage, "decoding transaction state for %s: %v", txID, err)
			}
		}
		machine = tx.Restore(row.TransactionID, tx.Type(row.Type), tx.Status(row.Status), row.InitiatorDID, row.SettlementID, row.CreatedAt.Unix(), row.UpdatedAt.Unix(), snap)
		bodyBytes = row.Body
	}

	prevUpdatedAt := time.Unix(machine.UpdatedAt, 0).UTC()
	applyErr := machine.Apply(body, meta.From, now.Unix(), uuid.NewString())

	snapJSON, err := json.Marshal(machine.Snapshot())
	if err != nil {
		return newErr(ErrStorage, "encoding transaction state for %s: %v", txID, err)
	}
	newRow := &store.Transaction{
		TransactionID: txID, Type: string(machine.Type), Status: string(machine.Status),
		InitiatorDID: machine.InitiatorDID, Body: bodyBytes, CreatedAt: time.Unix(machine.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(machine.UpdatedAt, 0).UTC(), SettlementID: machine.SettlementID, State: snapJSON,
	}

	if row == nil {
		if err := n.store.PutTransaction(newRow); err != nil {
			return newErr(ErrStorage, "creating transaction %s: %v", txID, err)
		}
	} else if err := n.store.UpdateTransaction(newRow, prevUpdatedAt); err != nil {
		return newErr(ErrStorage, "updating transaction %s: %v", txID, err)
	}

	if applyErr == nil {
		return nil
	}

	txErr, ok := applyErr.(*tx.Error)
	if !ok || txErr.Code != tx.ErrDispatch {
		// §8: an Authorize from outside the authorizer set is a
		// Validation error, surfaced to the caller without an Error
		// body or a Status change.
		return applyErr
	}

	errBody := message.NewErrorBody(txID, "Dispatch", txErr.Message)
	plain, err := a.CreateMessage(errBody, txID)
	if err != nil {
		return err
	}
	if _, _, err := a.SendMessage(ctx, plain, []did.DID{did.DID(meta.From)}, true); err != nil {
		return err
	}
	return applyErr
}

func (n *Node) txLock(txID string) *sync.Mutex {
	n.txLocksMu.Lock()
	defer n.txLocksMu.Unlock()
	l, ok := n.txLocks[txID]
	if !ok {
		l = &sync.Mutex{}
		n.txLocks[txID] = l
	}
	return l
}

// newTransactionParams reports the lifecycle Type and initial required
// authorizers for a body that opens a new transaction, or ok=false for a
// body that can only continue an existing one.
func newTransactionParams(body message.Body) (typ tx.Type, agents []message.Agent, ok bool) {
	switch b := body.(type) {
	case *message.Transfer:
		return tx.TypeTransfer, b.Agents, true
	case *message.Payment:
		return tx.TypePayment, b.Agents, true
	case *message.Connect:
		return tx.TypeConnect, nil, true
	default:
		return "", nil, false
	}
}

func transactionIDOf(body message.Body) string {
	if t, ok := body.(interface{ TransactionID() string }); ok {
		return t.TransactionID()
	}
	return ""
}

func bareType(messageType string) string {
	for i := len(messageType) - 1; i >= 0; i-- {
		if messageType[i] == '#' {
			return messageType[i+1:]
		}
	}
	return messageType
}

// plainType/plainTransactionID peek an outbound plain message for logging
// purposes only; packed is almost always encrypted, in which case these
// degrade gracefully to empty strings rather than failing the send.
func plainType(packed json.RawMessage) string {
	var p message.Plain
	if json.Unmarshal(packed, &p) == nil {
		return bareType(p.Type)
	}
	return ""
}

func plainTransactionID(packed json.RawMessage) string {
	var p message.Plain
	if json.Unmarshal(packed, &p) == nil {
		return p.TransactionID()
	}
	return ""
}
