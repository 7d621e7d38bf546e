package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaVersionConstraint defines the SemVer major version that
// loaded configurations must satisfy. A v1 gateway accepts only v1 configs.
const SupportedSchemaVersionConstraint = "v1"

// LoadConfig reads the specified YAML bytes, validates them against the
// embedded JSON schema, unmarshals into a Config struct, checks schema version
// compatibility, performs logical validation, and applies defaults.
func LoadConfig(configYAML []byte, filePathHint string) (*Config, error) {
	if len(configYAML) == 0 {
		return nil, objgwerrors.NewConfigError("configuration content cannot be empty", nil)
	}

	// Step 1: Validate against the JSON Schema for basic structure and types.
	if err := ValidateWithSchema(configYAML); err != nil {
		return nil, objgwerrors.NewConfigError(fmt.Sprintf("configuration '%s' failed schema validation", filePathHint), err)
	}

	// Step 2: Unmarshal into Go struct using strict decoding to catch unknown fields.
	var cfg Config
	if err := yamlUnmarshalStrict(configYAML, &cfg); err != nil {
		return nil, objgwerrors.NewConfigError(fmt.Sprintf("failed to parse configuration YAML '%s'", filePathHint), err)
	}
	cfg.FilePath = filePathHint

	// Step 3: Check schema version compatibility.
	if cfg.SchemaVersion == "" {
		return nil, objgwerrors.NewValidationError(fmt.Sprintf("configuration '%s' is missing required 'schemaVersion' field", filePathHint), nil)
	}
	cfgSemVer := cfg.SchemaVersion
	if !strings.HasPrefix(cfgSemVer, "v") {
		cfgSemVer = "v" + cfgSemVer
	}
	if !semver.IsValid(cfgSemVer) {
		return nil, objgwerrors.NewValidationError(fmt.Sprintf("configuration '%s' has invalid 'schemaVersion' format: '%s'", filePathHint, cfg.SchemaVersion), nil)
	}
	if semver.Major(cfgSemVer) != SupportedSchemaVersionConstraint {
		return nil, objgwerrors.NewValidationError(
			fmt.Sprintf("configuration '%s' schemaVersion '%s' is not compatible with gateway requirement '%s'",
				filePathHint, cfg.SchemaVersion, SupportedSchemaVersionConstraint),
			nil,
		)
	}

	// Step 4: Perform detailed logical validation on the Go struct.
	validationErrs := ValidateConfigStructure(&cfg)
	if len(validationErrs) > 0 {
		var errorMessages []string
		for _, vErr := range validationErrs {
			errorMessages = append(errorMessages, vErr.Error())
		}
		combinedMessage := fmt.Sprintf("configuration '%s' has %d validation error(s):\n- %s",
			filePathHint, len(errorMessages), strings.Join(errorMessages, "\n- "))
		return nil, objgwerrors.NewValidationError(combinedMessage, validationErrs[0])
	}

	// Step 5: Fill in defaults after all validation has passed.
	cfg.ApplyDefaults()

	return &cfg, nil
}

// LoadConfigFromFile is a convenience function to read a configuration from disk.
func LoadConfigFromFile(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, objgwerrors.NewConfigError("configuration file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, objgwerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	yamlFile, err := os.ReadFile(absPath)
	if err != nil {
		return nil, objgwerrors.NewConfigError(fmt.Sprintf("failed to read configuration file '%s'", absPath), err)
	}
	return LoadConfig(yamlFile, absPath)
}

// DefaultConfig returns a Config with every field set to its built-in default.
// Used when the gateway is started without a -config flag.
func DefaultConfig() *Config {
	cfg := &Config{SchemaVersion: "v1.0.0"}
	cfg.ApplyDefaults()
	return cfg
}

// yamlUnmarshalStrict provides stricter YAML unmarshalling by disallowing unknown fields.
// This helps users catch typos or unsupported configuration options early.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	decoder := yaml.NewDecoder(strings.NewReader(string(in)))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}
