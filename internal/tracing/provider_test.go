package tracing_test

import (
	"context"
	"io"
	"testing"

	"github.com/objgw-labs/objgw/internal/config"
	"github.com/objgw-labs/objgw/internal/logger"
	"github.com/objgw-labs/objgw/internal/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNoOpProvider(t *testing.T) {
	p := tracing.NewNoOpProvider()

	assert.False(t, p.Enabled())
	require.NotNil(t, p.GetTracer("anything"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_DisabledConfigFallsBackToNoOp(t *testing.T) {
	log := logger.NewLogger("error", "text", io.Discard)

	p := tracing.NewProvider(context.Background(), config.TracingConfig{Enabled: false}, log)

	assert.False(t, p.Enabled())
}

func TestNewProvider_UnsupportedProtocolFallsBackToNoOp(t *testing.T) {
	log := logger.NewLogger("error", "text", io.Discard)
	cfg := config.TracingConfig{
		Enabled:  true,
		Protocol: "carrier-pigeon",
	}

	p := tracing.NewProvider(context.Background(), cfg, log)

	// A broken exporter configuration must never surface as an error to
	// callers; the provider silently degrades for its whole lifetime.
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_EnvKillSwitch(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	log := logger.NewLogger("error", "text", io.Discard)
	insecure := true
	cfg := config.TracingConfig{
		Enabled:  true,
		Endpoint: "localhost:4317",
		Insecure: &insecure,
	}

	p := tracing.NewProvider(context.Background(), cfg, log)

	assert.False(t, p.Enabled())
}

func TestBackendAvailable_DefaultBuild(t *testing.T) {
	// Builds without the notracing tag carry the backend; the shim must
	// then hand out a config-honoring provider.
	assert.True(t, tracing.BackendAvailable())

	log := logger.NewLogger("error", "text", io.Discard)
	p := tracing.NewDefaultProvider(context.Background(), config.TracingConfig{}, log)
	assert.False(t, p.Enabled(), "tracing disabled in config must mean a no-op provider")
}
