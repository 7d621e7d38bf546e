package config

import (
	"fmt"
	"net"
	"regexp"
	"time"

	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
)

// Pre-compiled regex for validating the gateway service name.
var serviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateConfigStructure performs a logical validation of the parsed Config
// struct. It checks cross-field consistency and rules that cannot be fully
// expressed in JSON Schema alone. It returns a slice of all errors found.
func ValidateConfigStructure(c *Config) []error {
	var errs []error

	if c.Name != "" && !serviceNameRegex.MatchString(c.Name) {
		errs = append(errs, objgwerrors.NewValidationError(fmt.Sprintf("'name' must match %s, got '%s'", serviceNameRegex.String(), c.Name), nil))
	}

	if c.Server.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
			errs = append(errs, objgwerrors.NewValidationError(fmt.Sprintf("server.listen '%s' is not a valid host:port address", c.Server.Listen), err))
		}
	}
	for _, tc := range []struct {
		field string
		value string
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"tracing.timeout", c.Tracing.Timeout},
	} {
		if err := validateDuration(tc.field, tc.value); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Server.MaxObjectBytes < 0 {
		errs = append(errs, objgwerrors.NewValidationError("server.max_object_bytes cannot be negative", nil))
	}

	if c.Store.Backend != "" && c.Store.Backend != DefaultStoreBackend {
		errs = append(errs, objgwerrors.NewValidationError(fmt.Sprintf("store.backend '%s' is not supported (only '%s')", c.Store.Backend, DefaultStoreBackend), nil))
	}

	switch c.Tracing.Protocol {
	case "", ProtocolGRPC, ProtocolHTTP, ProtocolHTTPProtobuf:
	default:
		errs = append(errs, objgwerrors.NewValidationError(fmt.Sprintf("tracing.protocol '%s' is not supported", c.Tracing.Protocol), nil))
	}
	if c.Tracing.ServiceName != "" && !serviceNameRegex.MatchString(c.Tracing.ServiceName) {
		errs = append(errs, objgwerrors.NewValidationError(fmt.Sprintf("tracing.service_name must match %s, got '%s'", serviceNameRegex.String(), c.Tracing.ServiceName), nil))
	}

	if c.Events.BufferSize < 0 {
		errs = append(errs, objgwerrors.NewValidationError("events.buffer_size cannot be negative", nil))
	}

	return errs
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return objgwerrors.NewValidationError(fmt.Sprintf("%s '%s' is not a valid duration", field, value), err)
	}
	if d <= 0 {
		return objgwerrors.NewValidationError(fmt.Sprintf("%s must be positive, got '%s'", field, value), nil)
	}
	return nil
}
