//go:build !notracing

package tracing

import (
	"context"

	"github.com/objgw-labs/objgw/internal/config"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
)

// BackendAvailable reports whether this binary was built with the OTLP
// export backend compiled in. Fixed for the process lifetime.
func BackendAvailable() bool { return true }

// NewDefaultProvider is the provider constructor the gateway entry point
// uses. In backend-capable builds it honors the tracing configuration.
func NewDefaultProvider(ctx context.Context, cfg config.TracingConfig, log objgwlog.Logger) *OtelTracerProvider {
	return NewProvider(ctx, cfg, log)
}
