package contract

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is the message carried by a ConfigurationError without detail.
const ErrNotConfigured = "execution catalog is not configured"

// ConfigurationError means the execution store has no usable connection.
// Callers should configure the store before retrying.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	if e.Msg == "" {
		return ErrNotConfigured
	}
	return e.Msg
}

// DataSourceError wraps a query failure: timeout, connectivity or malformed rows.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s: data source: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// ComputationError means an invariant was violated while folding rows.
type ComputationError struct {
	Op  string
	Msg string
	Err error
}

func (e *ComputationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError constructs a ConfigurationError.
func NewConfigurationError(msg string) error {
	return &ConfigurationError{Msg: msg}
}

// NewDataSourceError constructs a DataSourceError.
func NewDataSourceError(op string, err error) error {
	return &DataSourceError{Op: op, Err: err}
}

// NewComputationError constructs a ComputationError.
func NewComputationError(op, msg string, err error) error {
	return &ComputationError{Op: op, Msg: msg, Err: err}
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsDataSourceError reports whether err carries a DataSourceError.
func IsDataSourceError(err error) bool {
	var target *DataSourceError
	return errors.As(err, &target)
}

// IsComputationError reports whether err carries a ComputationError.
func IsComputationError(err error) bool {
	var target *ComputationError
	return errors.As(err, &target)
}

// IsTyped reports whether err already carries one of the typed errors.
func IsTyped(err error) bool {
	return IsConfigurationError(err) || IsDataSourceError(err) || IsComputationError(err)
}
