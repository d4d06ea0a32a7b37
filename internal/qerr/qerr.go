// Package qerr defines the error taxonomy shared by the schema builder and
// the request-time list engine. Configuration errors abort schema construction;
// validation errors are surfaced to the client as field-scoped GraphQL errors.
package qerr

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid declarative spec detected while the
// schema is being built. It is never produced at request time.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

// Configf builds a ConfigurationError with fmt.Sprintf semantics.
func Configf(format string, args ...interface{}) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ValidationError reports a malformed client argument. It names the argument
// and the offending value so the client can correct the request.
type ValidationError struct {
	Argument string
	Value    interface{}
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Reason)
	}
	return fmt.Sprintf("invalid argument %q (value %v): %s", e.Argument, e.Value, e.Reason)
}

// Validationf builds a ValidationError for the named argument.
func Validationf(argument string, value interface{}, format string, args ...interface{}) error {
	return &ValidationError{
		Argument: argument,
		Value:    value,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrNotImplemented marks strategy operations that are declared for interface
// symmetry but intentionally left unimplemented.
var ErrNotImplemented = errors.New("not implemented")
