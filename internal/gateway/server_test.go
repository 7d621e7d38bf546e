package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/objgw-labs/objgw/internal/config"
	"github.com/objgw-labs/objgw/internal/gateway"
	"github.com/objgw-labs/objgw/internal/logger"
	"github.com/objgw-labs/objgw/internal/store"
	"github.com/objgw-labs/objgw/internal/tracing"
	v1 "github.com/objgw-labs/objgw/pkg/objgw/v1"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
	objgwstore "github.com/objgw-labs/objgw/pkg/objgw/v1/store"
)

// recordingBus captures emitted events for assertions.
type recordingBus struct {
	events []events.Event
}

func (b *recordingBus) Emit(event events.Event) {
	b.events = append(b.events, event)
}

func (b *recordingBus) countOf(t events.EventType) int {
	n := 0
	for _, e := range b.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func newTestServer(t *testing.T, opts ...v1.GatewayOption) *gateway.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	log := logger.NewLogger("error", "text", io.Discard)
	baseOpts := []v1.GatewayOption{v1.WithObjectStore(store.NewMemoryObjectStore())}
	srv, err := gateway.NewServer(cfg, log, append(baseOpts, opts...)...)
	require.NoError(t, err)
	return srv
}

func doRequest(srv *gateway.Server, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestObjectLifecycle(t *testing.T) {
	srv := newTestServer(t)

	payload := []byte("hello objgw")
	rec := doRequest(srv, http.MethodPut, "/b/photos/o/cat.jpg", payload, map[string]string{
		"X-Objgw-Meta-Content-Type": "image/jpeg",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var info objgwstore.ObjectInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "photos", info.Bucket)
	assert.Equal(t, "cat.jpg", info.Key)
	assert.Equal(t, int64(len(payload)), info.Size)

	rec = doRequest(srv, http.MethodGet, "/b/photos/o/cat.jpg", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.Bytes())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, info.ETag, rec.Header().Get("ETag"))

	rec = doRequest(srv, http.MethodHead, "/b/photos/o/cat.jpg", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, info.ETag, rec.Header().Get("ETag"))

	rec = doRequest(srv, http.MethodDelete, "/b/photos/o/cat.jpg", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/b/photos/o/cat.jpg", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListObjectsWithPrefix(t *testing.T) {
	srv := newTestServer(t)

	for _, key := range []string{"logs/a.txt", "logs/b.txt", "images/c.png"} {
		rec := doRequest(srv, http.MethodPut, "/b/data/o/"+key, []byte("x"), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(srv, http.MethodGet, "/b/data?prefix=logs/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Bucket  string                  `json:"bucket"`
		Count   int                     `json:"count"`
		Objects []objgwstore.ObjectInfo `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "data", result.Bucket)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "logs/a.txt", result.Objects[0].Key)
	assert.Equal(t, "logs/b.txt", result.Objects[1].Key)
}

func TestListUnknownBucketReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/b/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutRejectsOversizedPayload(t *testing.T) {
	srv := newTestServer(t, v1.WithMaxObjectBytes(16))
	rec := doRequest(srv, http.MethodPut, "/b/big/o/blob", bytes.Repeat([]byte("a"), 64), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPutRejectsEmptyKey(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodPut, "/b/photos/o/", []byte("x"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = doRequest(srv, http.MethodGet, "/healthz", nil, map[string]string{
		"X-Request-Id": "client-supplied-id",
	})
	assert.Equal(t, "client-supplied-id", rec.Header().Get("X-Request-Id"))
}

func TestEventsEmittedForObjectOperations(t *testing.T) {
	bus := &recordingBus{}
	srv := newTestServer(t, v1.WithEventBus(bus))

	doRequest(srv, http.MethodPut, "/b/ev/o/k", []byte("v"), nil)
	doRequest(srv, http.MethodGet, "/b/ev/o/k", nil, nil)
	doRequest(srv, http.MethodDelete, "/b/ev/o/k", nil, nil)

	assert.Equal(t, 1, bus.countOf(events.ObjectStored))
	assert.Equal(t, 1, bus.countOf(events.ObjectFetched))
	assert.Equal(t, 1, bus.countOf(events.ObjectDeleted))
	assert.Equal(t, 3, bus.countOf(events.RequestReceived))
	assert.Equal(t, 3, bus.countOf(events.RequestCompleted))

	var completed events.Event
	for _, e := range bus.events {
		if e.Type == events.RequestCompleted {
			completed = e
			break
		}
	}
	assert.NotEmpty(t, completed.RequestID)
	assert.Equal(t, http.StatusCreated, completed.Status)
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	srv := newTestServer(t)

	doRequest(srv, http.MethodPut, "/b/m/o/k", []byte("v"), nil)
	doRequest(srv, http.MethodGet, "/b/m/o/k", nil, nil)

	rec := doRequest(srv, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "objgw_requests_total")
	assert.Contains(t, body, "objgw_request_duration_seconds")
	assert.Contains(t, body, "objgw_objects_stored_total")
}

func TestRequestsProduceConnectedSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := tracing.NewProviderWithExporter(nil, exporter)
	srv := newTestServer(t, v1.WithTracerProvider(provider))

	rec := doRequest(srv, http.MethodPut, "/b/traced/o/obj", []byte("payload"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, provider.Shutdown(context.Background()))

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)

	byName := make(map[string]tracetest.SpanStub, len(spans))
	for _, s := range spans {
		byName[s.Name] = s
	}

	root, ok := byName["PUT /b/:bucket/o/*key"]
	require.True(t, ok, "root span missing; got %v", spanNames(spans))
	put, ok := byName["store.put"]
	require.True(t, ok)
	read, ok := byName["request.read_body"]
	require.True(t, ok)

	assert.Equal(t, root.SpanContext.TraceID(), put.SpanContext.TraceID())
	assert.Equal(t, root.SpanContext.SpanID(), put.Parent.SpanID())
	assert.Equal(t, put.SpanContext.SpanID(), read.Parent.SpanID())
}

func TestDisabledTracingStillServes(t *testing.T) {
	srv := newTestServer(t, v1.WithTracerProvider(tracing.NewNoOpProvider()))

	rec := doRequest(srv, http.MethodPut, "/b/quiet/o/k", []byte("v"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(srv, http.MethodGet, "/b/quiet/o/k", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	return names
}
