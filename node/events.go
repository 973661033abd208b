package node

import (
	"time"

	"github.com/tap-x-project/tap/did"
)

// EventType names one of the §4.I event bus's four event kinds.
type EventType string

const (
	EventMessageReceived EventType = "MessageReceived"
	EventMessageSent     EventType = "MessageSent"
	EventMessageDropped  EventType = "MessageDropped"
	EventDeliveryFailed  EventType = "DeliveryFailed"
)

// Event is one occurrence published on the event bus.
type Event struct {
	Type          EventType
	TransactionID string
	From          did.DID
	To            []did.DID
	MessageType   string
	Reason        string
	Time          time.Time
}

// Subscriber receives Events in the order they were published.
type Subscriber func(Event)

// EventBus fans a published Event out to every subscriber. Delivery to a
// single subscriber is FIFO; subscribers run concurrently with respect to
// each other (§5: "FIFO per subscriber but subscribers run concurrently
// across events").
type EventBus struct {
	queues []chan Event
	done   chan struct{}
}

// NewEventBus creates an empty bus. Subscribe before Publish is called,
// since a subscriber installed after an event is published never sees it.
func NewEventBus() *EventBus {
	return &EventBus{done: make(chan struct{})}
}

// Subscribe registers sub on a dedicated, order-preserving queue and
// starts the goroutine that drains it. buffer bounds how many
// un-delivered events queue up before Publish blocks that subscriber.
func (b *EventBus) Subscribe(sub Subscriber, buffer int) {
	q := make(chan Event, buffer)
	b.queues = append(b.queues, q)
	go func() {
		for {
			select {
			case ev := <-q:
				sub(ev)
			case <-b.done:
				return
			}
		}
	}()
}

// Publish fans ev out to every subscriber's queue.
func (b *EventBus) Publish(ev Event) {
	for _, q := range b.queues {
		q <- ev
	}
}

// Close stops every subscriber goroutine. Queued-but-undelivered events
// are dropped.
func (b *EventBus) Close() {
	close(b.done)
}

// MessageSent implements agent.EventSink, publishing an EventMessageSent.
func (b *EventBus) MessageSent(from did.DID, to []did.DID, msgType string) {
	b.Publish(Event{Type: EventMessageSent, From: from, To: to, MessageType: msgType, Time: time.Now()})
}

// MessageDropped implements agent.EventSink, publishing an
// EventMessageDropped.
func (b *EventBus) MessageDropped(from did.DID, msgType string, reason string) {
	b.Publish(Event{Type: EventMessageDropped, From: from, MessageType: msgType, Reason: reason, Time: time.Now()})
}
