package dbconfig

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrArgument                = errors.New("invalid argument")
	ErrConfiguration           = errors.New("configuration error")
	ErrMissingConnectionString = errors.New("missing connection string")
)

// ArgumentError reports that a required dependency was not supplied.
type ArgumentError struct {
	Name string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %q is required", e.Name)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrArgument
}

// ConfigurationError reports an override variable that is blank, malformed or
// out of range. Key names the offending configuration key; Err holds the
// underlying parse error when there is one.
type ConfigurationError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// MissingConnectionStringError reports that the selected connection string is
// absent or blank. It is a ConfigurationError: errors.As with a
// *ConfigurationError target matches it.
type MissingConnectionStringError struct {
	Section string
	Key     string
}

func (e *MissingConnectionStringError) Error() string {
	if e.Key == "" {
		return "Missing default connection string"
	}
	return fmt.Sprintf("Missing connection string with name: '%s'", e.Key)
}

func (e *MissingConnectionStringError) Is(target error) bool {
	return target == ErrMissingConnectionString
}

func (e *MissingConnectionStringError) Unwrap() error {
	return &ConfigurationError{
		Key:     e.Key,
		Message: e.Error(),
	}
}

func newMissingConnectionString(name string) *MissingConnectionStringError {
	return &MissingConnectionStringError{
		Section: ConnectionStringsSection,
		Key:     name,
	}
}
