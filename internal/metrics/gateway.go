package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics bundles the Prometheus collectors the gateway's request
// path and the event listener update.
type GatewayMetrics struct {
	// RequestsTotal counts finished HTTP requests by method and status class.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration observes end-to-end request latency by method.
	RequestDuration *prometheus.HistogramVec
	// ObjectsStored counts successful PUTs.
	ObjectsStored prometheus.Counter
	// ObjectsFetched counts successful GETs.
	ObjectsFetched prometheus.Counter
	// ObjectsDeleted counts successful DELETEs.
	ObjectsDeleted prometheus.Counter
	// EventsDropped counts gateway events dropped by a saturated bus.
	EventsDropped prometheus.Counter
}

// NewGatewayMetrics creates the gateway collectors and registers them on the
// provided registry.
func NewGatewayMetrics(registry *prometheus.Registry) *GatewayMetrics {
	m := &GatewayMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "objgw_requests_total",
			Help: "Finished HTTP requests by method and status class.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "objgw_request_duration_seconds",
			Help:    "End-to-end request latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		ObjectsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgw_objects_stored_total",
			Help: "Objects successfully stored.",
		}),
		ObjectsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgw_objects_fetched_total",
			Help: "Objects successfully fetched.",
		}),
		ObjectsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgw_objects_deleted_total",
			Help: "Objects successfully deleted.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgw_events_dropped_total",
			Help: "Gateway events dropped because the bus buffer was full.",
		}),
	}
	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ObjectsStored,
		m.ObjectsFetched,
		m.ObjectsDeleted,
		m.EventsDropped,
	)
	return m
}
