package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryProvider defines the interface for accessing the gateway's metrics registry.
// This allows consumers of the objgw library to expose metrics via their chosen method
// (e.g., Prometheus HTTP endpoint).
type RegistryProvider interface {
	// Registry returns the Prometheus registry containing objgw gateway metrics.
	Registry() *prometheus.Registry
}
