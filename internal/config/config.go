package config

import (
	"time"
)

// Defaults applied by ApplyDefaults when fields are absent from the YAML.
const (
	DefaultServiceName     = "objgw"
	DefaultListenAddress   = "127.0.0.1:9410"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultMaxObjectBytes  = 64 << 20 // 64 MiB
	DefaultEventBufferSize = 256
	DefaultStoreBackend    = "memory"
)

// Valid OTLP export protocols for the tracing section.
const (
	ProtocolGRPC         = "grpc"
	ProtocolHTTP         = "http"
	ProtocolHTTPProtobuf = "http/protobuf"
)

// Config represents the top-level structure of an objgw configuration YAML file.
type Config struct {
	SchemaVersion string        `yaml:"schemaVersion"`
	Name          string        `yaml:"name,omitempty"`
	Server        ServerConfig  `yaml:"server,omitempty"`
	Store         StoreConfig   `yaml:"store,omitempty"`
	Tracing       TracingConfig `yaml:"tracing,omitempty"`
	Events        EventsConfig  `yaml:"events,omitempty"`

	// FilePath is an internal field for storing the source file path for context
	// in logging and error messages. It is not parsed from the YAML.
	FilePath string `yaml:"-"`
}

// ServerConfig holds the HTTP listener settings of the gateway.
type ServerConfig struct {
	Listen       string `yaml:"listen,omitempty"`
	ReadTimeout  string `yaml:"read_timeout,omitempty"`
	WriteTimeout string `yaml:"write_timeout,omitempty"`
	IdleTimeout  string `yaml:"idle_timeout,omitempty"`
	// MaxObjectBytes bounds the accepted PUT payload size. Zero means the default.
	MaxObjectBytes int64 `yaml:"max_object_bytes,omitempty"`
}

// StoreConfig selects and configures the object storage backend.
type StoreConfig struct {
	// Backend names the storage implementation. Only "memory" is built in.
	Backend string `yaml:"backend,omitempty"`
}

// TracingConfig configures the distributed-tracing exporter. Every field has
// an OTEL_* environment fallback so deployments can stay config-file free.
// A build without backend support ignores this section entirely.
type TracingConfig struct {
	// Enabled turns span export on for builds that carry the backend.
	Enabled bool `yaml:"enabled,omitempty"`
	// ServiceName overrides the service name reported to the collector.
	// Defaults to the top-level config Name.
	ServiceName string `yaml:"service_name,omitempty"`
	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint,omitempty"`
	// Protocol selects the export transport: "grpc" (default), "http" or
	// "http/protobuf".
	Protocol string `yaml:"protocol,omitempty"`
	// Insecure disables TLS towards the collector.
	Insecure *bool `yaml:"insecure,omitempty"`
	// Compression names the payload compression ("gzip" or empty).
	Compression string `yaml:"compression,omitempty"`
	// Timeout is the per-export timeout as a Go duration string.
	Timeout string `yaml:"timeout,omitempty"`
	// Headers are attached verbatim to every export request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// EventsConfig configures the in-process event bus.
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size,omitempty"`
}

// ApplyDefaults fills in defaults for fields absent from the YAML. It is
// called after validation so the validators see what the user actually wrote.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultServiceName
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListenAddress
	}
	if c.Server.MaxObjectBytes <= 0 {
		c.Server.MaxObjectBytes = DefaultMaxObjectBytes
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Protocol == "" {
		c.Tracing.Protocol = ProtocolGRPC
	}
	if c.Events.BufferSize <= 0 {
		c.Events.BufferSize = DefaultEventBufferSize
	}
}

// GetReadTimeout returns the parsed read timeout or the default.
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDurationOr(c.ReadTimeout, DefaultReadTimeout)
}

// GetWriteTimeout returns the parsed write timeout or the default.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.WriteTimeout, DefaultWriteTimeout)
}

// GetIdleTimeout returns the parsed idle timeout or the default.
func (c *ServerConfig) GetIdleTimeout() time.Duration {
	return parseDurationOr(c.IdleTimeout, DefaultIdleTimeout)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
