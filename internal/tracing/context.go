package tracing

import (
	"context"
	"sync"

	objgwtracing "github.com/objgw-labs/objgw/pkg/objgw/v1/tracing"
)

// bindingKey is the private context key for the per-request handle binding.
type bindingKey struct{}

// binding lazily materializes one Handle per execution context. The handle
// is built on first use, so requests that never trace pay only for the
// context value lookup. The sync.Once guards concurrent first use within a
// single request (e.g., a handler fanning out to helper goroutines);
// bindings are never shared across requests.
type binding struct {
	provider objgwtracing.TracerProvider
	service  string

	once   sync.Once
	handle *Handle
}

// Bind associates a fresh tracer-handle binding with the returned context.
// Request middleware calls this once per incoming request; everything
// downstream reaches the handle through Current. Each Bind call creates an
// independent binding, so two requests never observe each other's handle.
func Bind(ctx context.Context, provider objgwtracing.TracerProvider, service string) context.Context {
	return context.WithValue(ctx, bindingKey{}, &binding{provider: provider, service: service})
}

// Current returns the tracer handle bound to this execution context,
// constructing it on first use. Calling Current twice on the same bound
// context yields the identical *Handle. A context that was never bound
// gets the shared no-op handle, so call sites never have to branch on
// whether tracing is configured.
func Current(ctx context.Context) *Handle {
	b, ok := ctx.Value(bindingKey{}).(*binding)
	if !ok {
		return noopHandle
	}
	b.once.Do(func() {
		b.handle = newHandle(b.provider, b.service)
	})
	return b.handle
}
