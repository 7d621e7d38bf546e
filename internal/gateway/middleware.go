package gateway

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	inttracing "github.com/objgw-labs/objgw/internal/tracing"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "objgw_request_id"
)

// requestID returns the identifier assigned to the request by the middleware
// chain, or an empty string outside of it.
func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// requestIDMiddleware assigns every request a unique identifier, honoring one
// supplied by the client, and echoes it on the response.
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// tracingMiddleware binds a tracer handle to the request context and opens the
// root span for the request. Handlers below reach the same handle through
// tracing.Current and parent their spans on the context chain. When the
// provider is disabled the bound handle is the shared no-op and the whole
// chain degrades to pointer checks.
func (s *Server) tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := inttracing.Bind(c.Request.Context(), s.tracerProvider, s.cfg.Tracing.ServiceName)
		handle := inttracing.Current(ctx)

		spanName := c.Request.Method + " " + c.FullPath()
		ctx, span := handle.StartSpan(ctx, spanName,
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.String("url.path", c.Request.URL.Path),
			attribute.String("objgw.request_id", requestID(c)),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError && len(c.Errors) > 0 {
			span.EndWithError(c.Errors.Last().Err)
			return
		}
		span.End()
	}
}

// observabilityMiddleware records request metrics, emits request lifecycle
// events, and writes the access log line with trace correlation.
func (s *Server) observabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.eventBus.Emit(events.Event{
			Type:      events.RequestReceived,
			Timestamp: start,
			RequestID: requestID(c),
			Bucket:    c.Param("bucket"),
			Key:       objectKey(c),
		})

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method

		s.gatewayMetrics.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
		s.gatewayMetrics.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())

		s.eventBus.Emit(events.Event{
			Type:      events.RequestCompleted,
			Timestamp: time.Now(),
			RequestID: requestID(c),
			Bucket:    c.Param("bucket"),
			Key:       objectKey(c),
			Status:    status,
			Payload:   map[string]interface{}{"duration_ms": elapsed.Milliseconds()},
		})

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.log.LogCtx(c.Request.Context(), level, "request completed",
			"method", method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestID(c),
		)
	}
}
