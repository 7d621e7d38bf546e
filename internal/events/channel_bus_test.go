package events_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intevents "github.com/objgw-labs/objgw/internal/events"
	"github.com/objgw-labs/objgw/internal/logger"
	"github.com/objgw-labs/objgw/internal/metrics"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
)

func TestChannelEventBus_DeliversEvents(t *testing.T) {
	log := logger.NewLogger("error", "text", io.Discard)
	bus := intevents.NewChannelEventBus(8, log, nil)
	defer bus.Close()

	bus.Emit(events.Event{Type: events.ObjectStored, Bucket: "b", Key: "k"})

	select {
	case ev := <-bus.GetChannel():
		assert.Equal(t, events.ObjectStored, ev.Type)
		assert.Equal(t, "b", ev.Bucket)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestChannelEventBus_DropsWhenSaturated(t *testing.T) {
	log := logger.NewLogger("error", "text", io.Discard)
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_dropped_total"})
	bus := intevents.NewChannelEventBus(1, log, dropped)
	defer bus.Close()

	// Nothing consumes the channel, so only the first event fits.
	bus.Emit(events.Event{Type: events.RequestReceived})
	bus.Emit(events.Event{Type: events.RequestReceived})
	bus.Emit(events.Event{Type: events.RequestReceived})

	assert.Equal(t, float64(2), testutil.ToFloat64(dropped))
}

func TestMetricsEventListener_CountsObjectOperations(t *testing.T) {
	log := logger.NewLogger("error", "text", io.Discard)
	registry := prometheus.NewRegistry()
	gm := metrics.NewGatewayMetrics(registry)
	bus := intevents.NewChannelEventBus(16, log, gm.EventsDropped)
	listener := intevents.NewMetricsEventListener(bus, gm, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		listener.Start(ctx)
		close(done)
	}()

	bus.Emit(events.Event{Type: events.ObjectStored})
	bus.Emit(events.Event{Type: events.ObjectStored})
	bus.Emit(events.Event{Type: events.ObjectFetched})
	bus.Emit(events.Event{Type: events.ObjectDeleted})
	bus.Emit(events.Event{Type: events.RequestReceived}) // not counted

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after bus close")
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(gm.ObjectsStored))
	assert.Equal(t, float64(1), testutil.ToFloat64(gm.ObjectsFetched))
	assert.Equal(t, float64(1), testutil.ToFloat64(gm.ObjectsDeleted))
}

func TestNewChannelEventBus_PanicsOnNilLogger(t *testing.T) {
	require.Panics(t, func() {
		intevents.NewChannelEventBus(8, nil, nil)
	})
}
