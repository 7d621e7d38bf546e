package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objgw-labs/objgw/internal/config"
	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
)

func TestLoadConfig_FullDocument(t *testing.T) {
	yamlContent := []byte(`
schemaVersion: "v1.0.0"
name: edge-gateway
server:
  listen: "0.0.0.0:8080"
  read_timeout: "15s"
  max_object_bytes: 1048576
store:
  backend: memory
tracing:
  enabled: true
  service_name: edge-gateway
  endpoint: "collector:4317"
  protocol: grpc
  compression: gzip
  headers:
    x-tenant: acme
events:
  buffer_size: 512
`)
	cfg, err := config.LoadConfig(yamlContent, "test.yaml")
	require.NoError(t, err)

	assert.Equal(t, "edge-gateway", cfg.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, 15*time.Second, cfg.Server.GetReadTimeout())
	assert.Equal(t, int64(1048576), cfg.Server.MaxObjectBytes)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.Equal(t, "acme", cfg.Tracing.Headers["x-tenant"])
	assert.Equal(t, 512, cfg.Events.BufferSize)
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	cfg, err := config.LoadConfig([]byte(`schemaVersion: "v1.0.0"`), "minimal.yaml")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultServiceName, cfg.Name)
	assert.Equal(t, config.DefaultListenAddress, cfg.Server.Listen)
	assert.Equal(t, int64(config.DefaultMaxObjectBytes), cfg.Server.MaxObjectBytes)
	assert.Equal(t, config.DefaultStoreBackend, cfg.Store.Backend)
	assert.Equal(t, config.ProtocolGRPC, cfg.Tracing.Protocol)
	assert.Equal(t, config.DefaultServiceName, cfg.Tracing.ServiceName)
	assert.Equal(t, config.DefaultEventBufferSize, cfg.Events.BufferSize)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadConfig_MissingSchemaVersion(t *testing.T) {
	_, err := config.LoadConfig([]byte(`name: foo`), "bad.yaml")
	require.Error(t, err)
}

func TestLoadConfig_IncompatibleSchemaVersion(t *testing.T) {
	_, err := config.LoadConfig([]byte(`schemaVersion: "v2.0.0"`), "future.yaml")
	require.Error(t, err)
	var validationErr *objgwerrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "not compatible")
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	yamlContent := []byte(`
schemaVersion: "v1.0.0"
serverr:
  listen: ":1234"
`)
	_, err := config.LoadConfig(yamlContent, "typo.yaml")
	require.Error(t, err)
}

func TestLoadConfig_InvalidListenAddress(t *testing.T) {
	yamlContent := []byte(`
schemaVersion: "v1.0.0"
server:
  listen: "not a host port"
`)
	_, err := config.LoadConfig(yamlContent, "listen.yaml")
	require.Error(t, err)
	var validationErr *objgwerrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLoadConfig_UnsupportedStoreBackend(t *testing.T) {
	yamlContent := []byte(`
schemaVersion: "v1.0.0"
store:
  backend: postgres
`)
	_, err := config.LoadConfig(yamlContent, "backend.yaml")
	require.Error(t, err)
}

func TestLoadConfig_InvalidTracingProtocol(t *testing.T) {
	yamlContent := []byte(`
schemaVersion: "v1.0.0"
tracing:
  protocol: thrift
`)
	_, err := config.LoadConfig(yamlContent, "protocol.yaml")
	require.Error(t, err)
}

func TestLoadConfig_EmptyContent(t *testing.T) {
	_, err := config.LoadConfig(nil, "empty.yaml")
	require.Error(t, err)
	var configErr *objgwerrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "objgw.yaml")
	writeFile(t, path, `
schemaVersion: "v1.0.0"
name: file-gateway
`)

	cfg, err := config.LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-gateway", cfg.Name)
	assert.NotEmpty(t, cfg.FilePath)

	_, err = config.LoadConfigFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "v1.0.0", cfg.SchemaVersion)
	assert.Equal(t, config.DefaultListenAddress, cfg.Server.Listen)
	assert.Equal(t, config.DefaultReadTimeout, cfg.Server.GetReadTimeout())
}
