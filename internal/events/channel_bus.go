package events

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
)

// ChannelEventBus implements the public events.Bus interface using a buffered
// Go channel. It provides a simple, in-process, decoupled event distribution
// mechanism. Its primary characteristic is non-blocking emission: the request
// path never waits on event consumers.
type ChannelEventBus struct {
	channel chan events.Event
	log     objgwlog.Logger
	// dropped, when non-nil, counts events discarded because the buffer
	// was full.
	dropped prometheus.Counter
}

// NewChannelEventBus creates a new ChannelEventBus with the specified buffer
// size. If bufferSize is non-positive, a default is used. The dropped counter
// may be nil. Panics if the provided logger is nil.
func NewChannelEventBus(bufferSize int, log objgwlog.Logger, dropped prometheus.Counter) *ChannelEventBus {
	const defaultBufferSize = 256
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		panic("ChannelEventBus requires a non-nil logger")
	}

	bus := &ChannelEventBus{
		channel: make(chan events.Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
		dropped: dropped,
	}
	bus.log.Debugf("ChannelEventBus initialized with buffer size %d", bufferSize)
	return bus
}

// Emit sends an event onto the internal buffered channel. If the buffer is
// full the event is dropped, a warning is logged, and the drop counter is
// incremented. Dropping instrumentation events is always preferable to
// slowing down request handling.
func (c *ChannelEventBus) Emit(event events.Event) {
	select {
	case c.channel <- event:
	default:
		c.log.Warnf("Event channel buffer full, dropping event type '%s'", event.Type)
		if c.dropped != nil {
			c.dropped.Inc()
		}
	}
}

// GetChannel returns the underlying event channel for consumers. It is NOT
// part of the public events.Bus interface; in-process listeners (like the
// metrics listener) consume it directly. The returned channel is read-only.
func (c *ChannelEventBus) GetChannel() <-chan events.Event {
	return c.channel
}

// Close closes the underlying event channel, signalling consumers that no
// more events will be sent.
func (c *ChannelEventBus) Close() {
	c.log.Debugf("Closing ChannelEventBus channel.")
	close(c.channel)
}

// Ensure ChannelEventBus implements the public events.Bus interface at compile time.
var _ events.Bus = (*ChannelEventBus)(nil)
