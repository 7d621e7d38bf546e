package events

import (
	"context"

	"github.com/objgw-labs/objgw/internal/metrics"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
)

// MetricsEventListener subscribes to the gateway event bus and updates
// Prometheus metrics based on the events it receives.
type MetricsEventListener struct {
	bus *ChannelEventBus
	log objgwlog.Logger
	gm  *metrics.GatewayMetrics
}

// NewMetricsEventListener creates a new listener. It requires a
// ChannelEventBus to subscribe to and the gateway metrics it updates.
func NewMetricsEventListener(bus *ChannelEventBus, gm *metrics.GatewayMetrics, log objgwlog.Logger) *MetricsEventListener {
	if bus == nil || gm == nil || log == nil {
		panic("MetricsEventListener requires a non-nil ChannelEventBus, GatewayMetrics, and Logger")
	}
	return &MetricsEventListener{
		bus: bus,
		log: log.With("component", "MetricsEventListener"),
		gm:  gm,
	}
}

// Start consumes events until the bus channel is closed or the context is done.
// It is intended to run on its own goroutine.
func (l *MetricsEventListener) Start(ctx context.Context) {
	l.log.Debugf("Starting metrics event listener...")
	for {
		select {
		case event, ok := <-l.bus.GetChannel():
			if !ok {
				l.log.Debugf("Event bus channel closed, stopping listener.")
				return
			}
			l.handleEvent(event)
		case <-ctx.Done():
			l.log.Debugf("Context cancelled, stopping metrics event listener.")
			return
		}
	}
}

// handleEvent processes a single event, incrementing metrics as needed.
func (l *MetricsEventListener) handleEvent(event events.Event) {
	switch event.Type {
	case events.ObjectStored:
		l.gm.ObjectsStored.Inc()
	case events.ObjectFetched:
		l.gm.ObjectsFetched.Inc()
	case events.ObjectDeleted:
		l.gm.ObjectsDeleted.Inc()
	}
}
