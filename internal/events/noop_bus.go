package events

import "github.com/objgw-labs/objgw/pkg/objgw/v1/events"

// NoOpEventBus is a default implementation of the public events.Bus interface.
// It performs no actions when its Emit method is called. It is used as a
// fallback when no event handling mechanism is configured for the gateway,
// so components emitting events never have to nil-check the bus.
type NoOpEventBus struct{}

// NewNoOpEventBus creates a new instance of the NoOpEventBus.
func NewNoOpEventBus() events.Bus {
	return &NoOpEventBus{}
}

// Emit implements the events.Bus interface method. It discards the event.
func (n *NoOpEventBus) Emit(event events.Event) {}

// Ensure NoOpEventBus implements the public events.Bus interface at compile time.
var _ events.Bus = (*NoOpEventBus)(nil)
