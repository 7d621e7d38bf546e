package v1

import (
	"context"

	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/metrics"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/store"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/tracing"
)

// GatewayV1 defines the public interface for the objgw object-storage gateway.
type GatewayV1 interface {
	// Serve starts the HTTP listener and blocks until the context is
	// cancelled or the listener fails.
	Serve(ctx context.Context) error

	// Shutdown gracefully drains in-flight requests and stops the listener.
	Shutdown(ctx context.Context) error

	// MetricsRegistryProvider returns the underlying metrics provider.
	MetricsRegistryProvider() metrics.RegistryProvider
	// TracerProvider returns the underlying tracing provider.
	TracerProvider() tracing.TracerProvider

	// Setter methods for configuring gateway components programmatically.
	// They must be called before Serve.
	SetObjectStore(store store.Store) error
	SetEventBus(bus events.Bus) error
	SetMetricsRegistryProvider(provider metrics.RegistryProvider) error
	SetTracerProvider(provider tracing.TracerProvider) error
	SetMaxObjectBytes(limit int64) error
}

// GatewayOption is a function type used to configure the gateway at creation.
type GatewayOption func(GatewayV1) error

// WithObjectStore is a gateway option to provide a custom object store backend.
func WithObjectStore(s store.Store) GatewayOption {
	return func(g GatewayV1) error {
		if s == nil {
			return objgwerrors.NewConfigError("object store cannot be nil", nil)
		}
		return g.SetObjectStore(s)
	}
}

// WithEventBus is a gateway option to provide a custom event bus.
func WithEventBus(bus events.Bus) GatewayOption {
	return func(g GatewayV1) error {
		if bus == nil {
			return objgwerrors.NewConfigError("event bus cannot be nil", nil)
		}
		return g.SetEventBus(bus)
	}
}

// WithMetricsRegistryProvider is a gateway option to provide a custom metrics provider.
func WithMetricsRegistryProvider(provider metrics.RegistryProvider) GatewayOption {
	return func(g GatewayV1) error {
		if provider == nil {
			return objgwerrors.NewConfigError("metrics registry provider cannot be nil", nil)
		}
		return g.SetMetricsRegistryProvider(provider)
	}
}

// WithTracerProvider is a gateway option to provide a custom tracing provider.
func WithTracerProvider(provider tracing.TracerProvider) GatewayOption {
	return func(g GatewayV1) error {
		if provider == nil {
			return objgwerrors.NewConfigError("tracer provider cannot be nil", nil)
		}
		return g.SetTracerProvider(provider)
	}
}

// WithMaxObjectBytes is a gateway option to bound the accepted PUT payload size.
func WithMaxObjectBytes(limit int64) GatewayOption {
	return func(g GatewayV1) error {
		if limit <= 0 {
			return objgwerrors.NewConfigError("max object bytes must be positive", nil)
		}
		return g.SetMaxObjectBytes(limit)
	}
}
