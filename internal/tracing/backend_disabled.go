//go:build notracing

package tracing

import (
	"context"

	"github.com/objgw-labs/objgw/internal/config"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
)

// BackendAvailable reports whether this binary was built with the OTLP
// export backend compiled in. Fixed for the process lifetime.
func BackendAvailable() bool { return false }

// NewDefaultProvider always yields the no-op provider in builds without the
// export backend, regardless of configuration. Call sites still get a valid
// handle from Current; every span it creates is a no-op.
func NewDefaultProvider(_ context.Context, _ config.TracingConfig, log objgwlog.Logger) *OtelTracerProvider {
	if log != nil {
		log.Debugf("Built without tracing backend; spans will not be exported.")
	}
	return NewNoOpProvider()
}
