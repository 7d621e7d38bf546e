package gateway

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	inttracing "github.com/objgw-labs/objgw/internal/tracing"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/store"
)

const metadataHeaderPrefix = "X-Objgw-Meta-"

// objectKey extracts the object key from the wildcard route parameter,
// stripping the leading slash gin includes.
func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

func (s *Server) handlePutObject(c *gin.Context) {
	ctx := c.Request.Context()
	bucket := c.Param("bucket")
	key := objectKey(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "object key must not be empty"})
		return
	}

	handle := inttracing.Current(ctx)
	ctx, span := handle.StartSpan(ctx, "store.put",
		attribute.String("objgw.bucket", bucket),
		attribute.String("objgw.key", key),
	)

	// The body read gets its own child span so payload ingestion latency is
	// separable from store latency in the trace.
	readSpan := handle.NewSpan("request.read_body", span)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxObjectBytes)
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		readSpan.EndWithError(err)
		span.EndWithError(err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": objgwerrors.NewRequestError("object exceeds maximum allowed size", err).Error(),
				"limit": s.maxObjectBytes,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	readSpan.SetAttributes(attribute.Int("objgw.payload_bytes", len(data)))
	readSpan.End()

	info, err := s.store.Put(ctx, bucket, key, data, metadataFromHeaders(c.Request.Header))
	if err != nil {
		span.EndWithError(err)
		s.writeStoreError(c, err)
		return
	}
	span.SetAttributes(attribute.Int64("objgw.object_size", info.Size))
	span.End()

	s.eventBus.Emit(events.Event{
		Type:      events.ObjectStored,
		Timestamp: time.Now(),
		RequestID: requestID(c),
		Bucket:    bucket,
		Key:       key,
		Payload:   map[string]interface{}{"size": info.Size, "etag": info.ETag},
	})

	c.Header("ETag", info.ETag)
	c.JSON(http.StatusCreated, info)
}

func (s *Server) handleGetObject(c *gin.Context) {
	ctx := c.Request.Context()
	bucket := c.Param("bucket")
	key := objectKey(c)

	handle := inttracing.Current(ctx)
	ctx, span := handle.StartSpan(ctx, "store.get",
		attribute.String("objgw.bucket", bucket),
		attribute.String("objgw.key", key),
	)

	obj, err := s.store.Get(ctx, bucket, key)
	if err != nil {
		span.EndWithError(err)
		s.writeStoreError(c, err)
		return
	}
	span.SetAttributes(attribute.Int64("objgw.object_size", obj.Size))
	span.End()

	s.eventBus.Emit(events.Event{
		Type:      events.ObjectFetched,
		Timestamp: time.Now(),
		RequestID: requestID(c),
		Bucket:    bucket,
		Key:       key,
		Payload:   map[string]interface{}{"size": obj.Size},
	})

	writeObjectHeaders(c, &obj.ObjectInfo)
	c.Data(http.StatusOK, contentTypeFor(&obj.ObjectInfo), obj.Data)
}

func (s *Server) handleHeadObject(c *gin.Context) {
	ctx := c.Request.Context()
	bucket := c.Param("bucket")
	key := objectKey(c)

	handle := inttracing.Current(ctx)
	ctx, span := handle.StartSpan(ctx, "store.head",
		attribute.String("objgw.bucket", bucket),
		attribute.String("objgw.key", key),
	)

	info, err := s.store.Head(ctx, bucket, key)
	if err != nil {
		span.EndWithError(err)
		s.writeStoreError(c, err)
		return
	}
	span.End()

	writeObjectHeaders(c, info)
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Header("Content-Type", contentTypeFor(info))
	c.Status(http.StatusOK)
}

func (s *Server) handleDeleteObject(c *gin.Context) {
	ctx := c.Request.Context()
	bucket := c.Param("bucket")
	key := objectKey(c)

	handle := inttracing.Current(ctx)
	ctx, span := handle.StartSpan(ctx, "store.delete",
		attribute.String("objgw.bucket", bucket),
		attribute.String("objgw.key", key),
	)

	if err := s.store.Delete(ctx, bucket, key); err != nil {
		span.EndWithError(err)
		s.writeStoreError(c, err)
		return
	}
	span.End()

	s.eventBus.Emit(events.Event{
		Type:      events.ObjectDeleted,
		Timestamp: time.Now(),
		RequestID: requestID(c),
		Bucket:    bucket,
		Key:       key,
	})

	c.Status(http.StatusNoContent)
}

func (s *Server) handleListObjects(c *gin.Context) {
	ctx := c.Request.Context()
	bucket := c.Param("bucket")
	prefix := c.Query("prefix")

	handle := inttracing.Current(ctx)
	ctx, span := handle.StartSpan(ctx, "store.list",
		attribute.String("objgw.bucket", bucket),
		attribute.String("objgw.prefix", prefix),
	)

	infos, err := s.store.List(ctx, bucket, prefix)
	if err != nil {
		span.EndWithError(err)
		s.writeStoreError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("objgw.object_count", len(infos)))
	span.End()

	c.JSON(http.StatusOK, gin.H{
		"bucket":  bucket,
		"prefix":  prefix,
		"count":   len(infos),
		"objects": infos,
	})
}

// writeStoreError maps store failures onto HTTP responses.
func (s *Server) writeStoreError(c *gin.Context, err error) {
	switch {
	case objgwerrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrStoreClosed):
		s.logRequestError(c.Request.Context(), "store unavailable", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object store unavailable"})
	default:
		s.logRequestError(c.Request.Context(), "store operation failed", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// metadataFromHeaders extracts user metadata from X-Objgw-Meta-* headers.
// Header names are canonicalized by net/http, so keys come back lower-cased
// with the prefix removed.
func metadataFromHeaders(h http.Header) map[string]string {
	var md map[string]string
	for name, values := range h {
		if !strings.HasPrefix(name, metadataHeaderPrefix) || len(values) == 0 {
			continue
		}
		if md == nil {
			md = make(map[string]string)
		}
		md[strings.ToLower(strings.TrimPrefix(name, metadataHeaderPrefix))] = values[0]
	}
	return md
}

func writeObjectHeaders(c *gin.Context, info *store.ObjectInfo) {
	c.Header("ETag", info.ETag)
	c.Header("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	for k, v := range info.Metadata {
		c.Header(metadataHeaderPrefix+k, v)
	}
}

func contentTypeFor(info *store.ObjectInfo) string {
	if ct, ok := info.Metadata["content-type"]; ok && ct != "" {
		return ct
	}
	return "application/octet-stream"
}
