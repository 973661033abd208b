package agent

import (
	"github.com/tap-x-project/tap/envelope"
	"github.com/tap-x-project/tap/message"
)

// Decision is the outcome of a Policy evaluation (§4.G).
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow permits the message through receive_message unchanged.
func Allow() Decision { return Decision{Allowed: true} }

// Deny drops the message, surfacing reason on the emitted MessageDropped
// event.
func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Policy inspects an inbound plain message and its unpack metadata before
// dispatch, and decides whether to let it through.
type Policy func(plain *message.Plain, meta *envelope.Metadata) Decision

// AllowAll is the default Policy: every inbound message is accepted.
func AllowAll(*message.Plain, *envelope.Metadata) Decision { return Allow() }
