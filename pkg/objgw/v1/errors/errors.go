package errors

import (
	"errors"
	"fmt"
)

// --- objgw Core Error Types ---

// ConfigError represents an error encountered during the loading, parsing,
// or validation of the gateway configuration.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that some input (e.g., configuration structure,
// schema version, request parameters) failed validation checks.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// NotFoundError indicates that a requested object or bucket does not exist
// in the object store.
type NotFoundError struct {
	Bucket string
	Key    string
}

func NewNotFoundError(bucket, key string) *NotFoundError {
	return &NotFoundError{Bucket: bucket, Key: key}
}
func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("bucket '%s' not found", e.Bucket)
	}
	return fmt.Sprintf("object '%s/%s' not found", e.Bucket, e.Key)
}

// IsNotFound checks if an error is a NotFoundError using errors.As.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// StoreError represents a fatal error from the object store backend while
// performing a storage operation.
type StoreError struct {
	Op     string // e.g., "put", "get", "delete"
	Bucket string
	Key    string
	Cause  error
}

func NewStoreError(op, bucket, key string, cause error) *StoreError {
	return &StoreError{Op: op, Bucket: bucket, Key: key, Cause: cause}
}
func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s '%s' failed: %v", e.Op, e.Bucket, e.Cause)
	}
	return fmt.Sprintf("store %s '%s/%s' failed: %v", e.Op, e.Bucket, e.Key, e.Cause)
}
func (e *StoreError) Unwrap() error { return e.Cause }

// RequestError represents a client-side request problem (bad bucket name,
// oversized payload, malformed metadata) that maps to a 4xx response.
type RequestError struct {
	Message string
	Cause   error
}

func NewRequestError(message string, cause error) *RequestError {
	return &RequestError{Message: message, Cause: cause}
}
func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bad request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bad request: %s", e.Message)
}
func (e *RequestError) Unwrap() error { return e.Cause }
