// Package gateway implements the objgw HTTP surface: the gin router, the
// request middleware chain, and the object handlers that bridge HTTP to the
// object store. Request tracing is bound per request; handlers retrieve the
// active tracer through the request context and never touch globals.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/objgw-labs/objgw/internal/config"
	intevents "github.com/objgw-labs/objgw/internal/events"
	intmetrics "github.com/objgw-labs/objgw/internal/metrics"
	inttracing "github.com/objgw-labs/objgw/internal/tracing"
	v1 "github.com/objgw-labs/objgw/pkg/objgw/v1"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/events"
	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
	objgwmetrics "github.com/objgw-labs/objgw/pkg/objgw/v1/metrics"
	"github.com/objgw-labs/objgw/pkg/objgw/v1/store"
	objgwtracing "github.com/objgw-labs/objgw/pkg/objgw/v1/tracing"
)

// Server is the concrete gateway implementation behind the GatewayV1 interface.
// All dependencies are injected; NewServer fills defaults for any that are nil.
type Server struct {
	cfg *config.Config
	log objgwlog.Logger

	store          store.Store
	eventBus       events.Bus
	tracerProvider objgwtracing.TracerProvider
	metricsProv    objgwmetrics.RegistryProvider
	gatewayMetrics *intmetrics.GatewayMetrics

	maxObjectBytes int64

	router     *gin.Engine
	httpServer *http.Server
	started    bool
}

// NewServer constructs a gateway from configuration and applies any options.
// Components not supplied via options get production defaults: an in-memory
// registry provider, a no-op tracer provider, and a no-op event bus. The
// object store has no default and must be provided before Serve.
func NewServer(cfg *config.Config, log objgwlog.Logger, opts ...v1.GatewayOption) (*Server, error) {
	if cfg == nil {
		return nil, objgwerrors.NewConfigError("gateway requires a non-nil config", nil)
	}
	if log == nil {
		return nil, objgwerrors.NewConfigError("gateway requires a non-nil logger", nil)
	}

	s := &Server{
		cfg:            cfg,
		log:            log.With("component", "gateway"),
		eventBus:       &intevents.NoOpEventBus{},
		tracerProvider: inttracing.NewNoOpProvider(),
		maxObjectBytes: cfg.Server.MaxObjectBytes,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.metricsProv == nil {
		s.metricsProv = intmetrics.NewPrometheusRegistryProvider()
	}
	if s.gatewayMetrics == nil {
		s.gatewayMetrics = intmetrics.NewGatewayMetrics(s.metricsProv.Registry())
	}
	if s.maxObjectBytes <= 0 {
		s.maxObjectBytes = config.DefaultMaxObjectBytes
	}

	s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestIDMiddleware())
	router.Use(s.tracingMiddleware())
	router.Use(s.observabilityMiddleware())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", s.handleMetrics())

	router.PUT("/b/:bucket/o/*key", s.handlePutObject)
	router.GET("/b/:bucket/o/*key", s.handleGetObject)
	router.HEAD("/b/:bucket/o/*key", s.handleHeadObject)
	router.DELETE("/b/:bucket/o/*key", s.handleDeleteObject)
	router.GET("/b/:bucket", s.handleListObjects)

	s.router = router
}

// Handler exposes the configured router, primarily for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Serve starts the HTTP listener and blocks until the context is cancelled
// or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	if s.store == nil {
		return objgwerrors.NewConfigError("gateway cannot serve without an object store", nil)
	}
	s.started = true

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.GetReadTimeout(),
		WriteTimeout: s.cfg.Server.GetWriteTimeout(),
		IdleTimeout:  s.cfg.Server.GetIdleTimeout(),
	}

	s.eventBus.Emit(events.Event{Type: events.GatewayStart, Timestamp: time.Now()})
	s.log.Infof("Gateway listening on %s", s.cfg.Server.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Shutdown drains in-flight requests, stops the listener, and closes the
// object store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Infof("Gateway shutting down...")
	s.eventBus.Emit(events.Event{Type: events.GatewayStop, Timestamp: time.Now()})

	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MetricsRegistryProvider returns the metrics provider in use.
func (s *Server) MetricsRegistryProvider() objgwmetrics.RegistryProvider { return s.metricsProv }

// TracerProvider returns the tracer provider in use.
func (s *Server) TracerProvider() objgwtracing.TracerProvider { return s.tracerProvider }

// SetObjectStore replaces the object store backend. Must be called before Serve.
func (s *Server) SetObjectStore(st store.Store) error {
	if s.started {
		return objgwerrors.NewConfigError("cannot replace object store on a running gateway", nil)
	}
	if st == nil {
		return objgwerrors.NewConfigError("object store cannot be nil", nil)
	}
	s.store = st
	return nil
}

// SetEventBus replaces the event bus. Must be called before Serve.
func (s *Server) SetEventBus(bus events.Bus) error {
	if s.started {
		return objgwerrors.NewConfigError("cannot replace event bus on a running gateway", nil)
	}
	if bus == nil {
		return objgwerrors.NewConfigError("event bus cannot be nil", nil)
	}
	s.eventBus = bus
	return nil
}

// SetMetricsRegistryProvider replaces the metrics provider. Must be called
// before Serve.
func (s *Server) SetMetricsRegistryProvider(provider objgwmetrics.RegistryProvider) error {
	if s.started {
		return objgwerrors.NewConfigError("cannot replace metrics provider on a running gateway", nil)
	}
	if provider == nil {
		return objgwerrors.NewConfigError("metrics registry provider cannot be nil", nil)
	}
	s.metricsProv = provider
	s.gatewayMetrics = intmetrics.NewGatewayMetrics(provider.Registry())
	return nil
}

// SetTracerProvider replaces the tracer provider. Must be called before Serve.
func (s *Server) SetTracerProvider(provider objgwtracing.TracerProvider) error {
	if s.started {
		return objgwerrors.NewConfigError("cannot replace tracer provider on a running gateway", nil)
	}
	if provider == nil {
		return objgwerrors.NewConfigError("tracer provider cannot be nil", nil)
	}
	s.tracerProvider = provider
	return nil
}

// SetMaxObjectBytes bounds the accepted PUT payload size.
func (s *Server) SetMaxObjectBytes(limit int64) error {
	if limit <= 0 {
		return objgwerrors.NewConfigError("max object bytes must be positive", nil)
	}
	s.maxObjectBytes = limit
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": s.cfg.Name})
}

func (s *Server) handleMetrics() gin.HandlerFunc {
	h := promhttp.HandlerFor(s.metricsProv.Registry(), promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

func (s *Server) logRequestError(ctx context.Context, msg string, err error) {
	s.log.LogCtx(ctx, slog.LevelError, msg, "error", err)
}

var _ v1.GatewayV1 = (*Server)(nil)
