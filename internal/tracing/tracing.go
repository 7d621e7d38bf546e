// Package tracing implements the request-tracing core of the gateway: a
// per-request tracer handle, the span-creation protocol, and the provider
// that connects (or doesn't) to an OTLP collector.
//
// Design rules the rest of the gateway relies on:
//   - nothing in this package ever returns an error to request-handling
//     code; a missing or broken backend degrades to no-ops,
//   - a disabled handle creates spans at the cost of a branch: no
//     allocation, no timestamp capture, no backend call,
//   - handles are never shared between requests, so no locking is needed
//     on the span path.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	objgwtracing "github.com/objgw-labs/objgw/pkg/objgw/v1/tracing"
)

// instrumentationName identifies this library as the span source.
const instrumentationName = "github.com/objgw-labs/objgw"

var (
	// noopTracer backs every disabled handle. The OTel no-op tracer
	// discards everything without allocating.
	noopTracer = oteltrace.NewNoopTracerProvider().Tracer(instrumentationName)

	// noopHandle is returned by Current for contexts that were never bound.
	noopHandle = &Handle{service: "objgw", tracer: noopTracer}

	// noopSpan is the shared sentinel returned by span creation on a
	// disabled handle. Every method on it reduces to a nil check.
	noopSpan = &Span{}
)

// Handle is the single entry point for creating spans within one request's
// execution context. It is exclusively owned by that context: it must not be
// stored globally or handed to another request's goroutine.
type Handle struct {
	service string
	tracer  oteltrace.Tracer
	enabled bool
}

func newHandle(provider objgwtracing.TracerProvider, service string) *Handle {
	if service == "" {
		service = "objgw"
	}
	if provider == nil || !provider.Enabled() {
		return &Handle{service: service, tracer: noopTracer}
	}
	return &Handle{
		service: service,
		tracer:  provider.GetTracer(instrumentationName),
		enabled: true,
	}
}

// NoopHandle returns a handle whose spans are all no-ops. Useful for tests
// and for code paths that run before any request context exists.
func NoopHandle() *Handle { return noopHandle }

// IsEnabled reports whether spans created by this handle are recorded.
// Callers can use it to skip expensive attribute computation.
func (h *Handle) IsEnabled() bool { return h.enabled }

// Service returns the logical service name this handle reports spans under.
func (h *Handle) Service() string { return h.service }

// NewSpan opens a named span, optionally linked under parent. A nil parent
// (or a no-op parent) starts a new root. On a disabled handle, or with an
// empty name, the shared no-op sentinel is returned immediately.
//
// Parent linkage is best-effort: a parent that already ended is still
// accepted and produces a child pointing at it, which backends tolerate.
func (h *Handle) NewSpan(name string, parent *Span, attrs ...attribute.KeyValue) *Span {
	if !h.enabled || name == "" {
		return noopSpan
	}
	parentCtx := context.Background()
	if parent != nil && parent.otel != nil {
		parentCtx = parent.ctx
	}
	ctx, span := h.tracer.Start(parentCtx, name, oteltrace.WithAttributes(attrs...))
	return &Span{otel: span, ctx: ctx}
}

// StartSpan opens a named span parented on whatever span the given context
// carries, and returns a derived context carrying the new span. This is the
// variant request middleware and store calls use, so parentage follows the
// call chain without threading Span values explicitly.
func (h *Handle) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	if !h.enabled || name == "" {
		return ctx, noopSpan
	}
	newCtx, span := h.tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
	return newCtx, &Span{otel: span, ctx: newCtx}
}

// Span represents one named, timed operation within a trace. The zero Span
// (and the shared sentinel) is a valid no-op: every method tolerates it.
// Spans are never reused after End.
type Span struct {
	otel oteltrace.Span
	ctx  context.Context
}

// End completes the span. Ending twice is tolerated; the second call is
// ignored by the SDK. Ending a parent before its children is tolerated too
// and at worst yields an odd-looking trace, never a fault.
func (s *Span) End() {
	if s == nil || s.otel == nil {
		return
	}
	s.otel.End()
}

// EndWithError records err on the span, marks its status as failed, and
// completes it. A nil err behaves exactly like End.
func (s *Span) EndWithError(err error) {
	if s == nil || s.otel == nil {
		return
	}
	if err != nil {
		s.otel.RecordError(err)
		s.otel.SetStatus(codes.Error, err.Error())
	}
	s.otel.End()
}

// SetAttributes attaches key/value attributes, passed through opaquely to
// the backend.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	if s == nil || s.otel == nil {
		return
	}
	s.otel.SetAttributes(attrs...)
}

// AddEvent records a point-in-time event on the span.
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	if s == nil || s.otel == nil {
		return
	}
	s.otel.AddEvent(name, oteltrace.WithAttributes(attrs...))
}

// IsRecording reports whether the span actually captures data. The no-op
// sentinel always reports false.
func (s *Span) IsRecording() bool {
	return s != nil && s.otel != nil && s.otel.IsRecording()
}

// Context returns a context carrying this span, for parenting follow-up
// work. For the no-op sentinel it returns the background context.
func (s *Span) Context() context.Context {
	if s == nil || s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// SpanContext exposes the OTel span context (trace ID, span ID). The no-op
// sentinel returns an invalid, zero-valued span context.
func (s *Span) SpanContext() oteltrace.SpanContext {
	if s == nil || s.otel == nil {
		return oteltrace.SpanContext{}
	}
	return s.otel.SpanContext()
}
