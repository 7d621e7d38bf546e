package tracing

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding/gzip"

	"github.com/objgw-labs/objgw/internal/config"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
	objgwtracing "github.com/objgw-labs/objgw/pkg/objgw/v1/tracing"
)

// Default OTLP endpoints when neither config nor environment name one.
const (
	defaultGRPCEndpoint = "localhost:4317"
	defaultHTTPEndpoint = "localhost:4318"

	defaultExportTimeout = 10 * time.Second
)

// OtelTracerProvider implements the public objgwtracing.TracerProvider
// interface using the OpenTelemetry SDK for actual tracing, or the official
// no-op provider when tracing is disabled or configuration fails.
//
// Failure policy: no constructor in this file returns an error for a broken
// exporter setup. The gateway must come up and serve requests whether or not
// a collector is reachable, so every failure path lands on the no-op provider.
type OtelTracerProvider struct {
	// provider holds either the SDK provider or the no-op provider.
	provider trace.TracerProvider
	// exporter is retained so Shutdown can flush and release it. Nil for no-op.
	exporter sdktrace.SpanExporter
	// sdkProvider is the concrete SDK provider for Shutdown. Nil for no-op.
	sdkProvider *sdktrace.TracerProvider
}

// NewNoOpProvider creates a TracerProvider whose spans are all discarded.
func NewNoOpProvider() *OtelTracerProvider {
	return &OtelTracerProvider{provider: trace.NewNoopTracerProvider()}
}

// NewProvider builds a provider from the gateway's tracing configuration,
// with standard OTEL_* environment variables filling any gaps. It never
// fails: disabled tracing, a missing endpoint, or a broken exporter all
// yield the no-op provider, with the reason logged.
func NewProvider(ctx context.Context, cfg config.TracingConfig, log objgwlog.Logger) *OtelTracerProvider {
	if !cfg.Enabled || strings.EqualFold(os.Getenv("OTEL_SDK_DISABLED"), "true") {
		log.Debugf("Tracing disabled; spans will not be exported.")
		return NewNoOpProvider()
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName(cfg))),
		resource.WithProcess(), resource.WithOS(), resource.WithContainer(), resource.WithHost(),
	)
	if err != nil {
		res = resource.Default()
		log.Warnf("Failed to describe OTel resource: %v. Using default resource.", err)
	}

	exporter, err := createExporter(ctx, cfg, log)
	if err != nil {
		log.Warnf("Failed to create OTLP exporter: %v. Falling back to no-op tracing.", err)
		return NewNoOpProvider()
	}

	return NewProviderWithExporter(res, exporter)
}

// NewProviderWithExporter wires an arbitrary exporter into a batch-processing
// SDK provider. Exposed so embedders and tests can substitute exporters
// (in-memory, artificially slow) without touching exporter construction.
// A nil resource uses the SDK default.
func NewProviderWithExporter(res *resource.Resource, exporter sdktrace.SpanExporter) *OtelTracerProvider {
	// The batch processor decouples request threads from collector I/O:
	// span End hands off to an in-process buffer, export happens on the
	// processor's own goroutine.
	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(bsp),
	}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}
	sdkTP := sdktrace.NewTracerProvider(opts...)
	return &OtelTracerProvider{
		provider:    sdkTP,
		exporter:    exporter,
		sdkProvider: sdkTP,
	}
}

// createExporter resolves the OTLP protocol and endpoint from config and
// environment, and builds the corresponding span exporter.
func createExporter(ctx context.Context, cfg config.TracingConfig, log objgwlog.Logger) (sdktrace.SpanExporter, error) {
	protocol := strings.ToLower(cfg.Protocol)
	if protocol == "" {
		protocol = strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))
	}
	if protocol == "" {
		protocol = config.ProtocolGRPC
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		switch protocol {
		case config.ProtocolGRPC:
			endpoint = defaultGRPCEndpoint
		case config.ProtocolHTTP, config.ProtocolHTTPProtobuf:
			endpoint = defaultHTTPEndpoint
		default:
			return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
		}
		log.Debugf("No OTLP endpoint configured, using %s default: %s", strings.ToUpper(protocol), endpoint)
	}

	headers := exportHeaders(cfg)
	timeout := exportTimeout(cfg, log)
	insecure := exportInsecure(cfg)
	compress := strings.ToLower(cfg.Compression)
	if compress == "" {
		compress = strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_COMPRESSION"))
	}

	switch protocol {
	case config.ProtocolGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithHeaders(headers),
			otlptracegrpc.WithTimeout(timeout),
		}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		if compress == "gzip" {
			opts = append(opts, otlptracegrpc.WithCompressor(gzip.Name))
		}
		log.Infof("Configuring OTLP gRPC exporter (endpoint: %s, insecure: %t)", endpoint, insecure)
		return otlptracegrpc.New(ctx, opts...)

	case config.ProtocolHTTP, config.ProtocolHTTPProtobuf:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithHeaders(headers),
			otlptracehttp.WithTimeout(timeout),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if compress == "gzip" {
			opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
		}
		log.Infof("Configuring OTLP HTTP exporter (endpoint: %s, insecure: %t)", endpoint, insecure)
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

// GetTracer returns a named tracer from the stored provider, SDK or no-op.
// Implements the public objgwtracing.TracerProvider interface.
func (p *OtelTracerProvider) GetTracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.provider == nil {
		return trace.NewNoopTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// Enabled reports whether this provider records and exports spans.
// Implements the public objgwtracing.TracerProvider interface.
func (p *OtelTracerProvider) Enabled() bool {
	return p.sdkProvider != nil
}

// Shutdown flushes buffered spans and releases the exporter, respecting the
// context deadline. A no-op provider shuts down trivially.
// Implements the public objgwtracing.TracerProvider interface.
func (p *OtelTracerProvider) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.sdkProvider != nil {
		if err := p.sdkProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.exporter != nil {
		if err := p.exporter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func serviceName(cfg config.TracingConfig) string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return config.DefaultServiceName
}

func exportHeaders(cfg config.TracingConfig) map[string]string {
	if len(cfg.Headers) > 0 {
		return cfg.Headers
	}
	return parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
}

func exportTimeout(cfg config.TracingConfig, log objgwlog.Logger) time.Duration {
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			return d
		}
		log.Warnf("Invalid tracing.timeout '%s', using default %v", cfg.Timeout, defaultExportTimeout)
		return defaultExportTimeout
	}
	return parseTimeout(os.Getenv("OTEL_EXPORTER_OTLP_TIMEOUT"), defaultExportTimeout)
}

func exportInsecure(cfg config.TracingConfig) bool {
	if cfg.Insecure != nil {
		return *cfg.Insecure
	}
	for _, flag := range []string{os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"), os.Getenv("OTEL_EXPORTER_OTLP_TRACES_INSECURE")} {
		if strings.EqualFold(strings.TrimSpace(flag), "true") {
			return true
		}
	}
	return false
}

// parseHeaders converts a comma-separated key=value string (OTLP env format)
// into a map.
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}
	for _, pair := range strings.Split(headerStr, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) == 2 {
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])
			if key != "" {
				headers[key] = value
			}
		}
	}
	return headers
}

// parseTimeout converts an OTLP timeout string (integer milliseconds or Go
// duration format) into a time.Duration, using the default if parsing fails.
func parseTimeout(timeoutStr string, defaultTimeout time.Duration) time.Duration {
	if timeoutStr == "" {
		return defaultTimeout
	}
	if ms, err := strconv.ParseInt(timeoutStr, 10, 64); err == nil {
		if ms < 0 {
			return defaultTimeout
		}
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(timeoutStr); err == nil && d >= 0 {
		return d
	}
	return defaultTimeout
}

// Compile-time check that the provider satisfies the public interface.
var _ objgwtracing.TracerProvider = (*OtelTracerProvider)(nil)
