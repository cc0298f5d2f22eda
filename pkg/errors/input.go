package errors

import (
	"fmt"
	"strings"
)

// ValidationError is user input clef cannot act on.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// AmbiguousFacetError is a constraint name the project's vocabulary does
// not know. Facet names changed between CMIP generations, so the message
// lists what is valid.
type AmbiguousFacetError struct {
	Key     string
	Project string
	Valid   []string
}

func NewAmbiguousFacetError(key, project string, valid []string) *AmbiguousFacetError {
	return &AmbiguousFacetError{Key: key, Project: project, Valid: valid}
}

func (e *AmbiguousFacetError) Error() string {
	return fmt.Sprintf("%s is not a valid constraint name for %s. Valid constraints are: %s",
		e.Key, e.Project, strings.Join(e.Valid, ", "))
}

func (e *AmbiguousFacetError) Is(target error) bool { return target == ErrInvalidInput }

// ConfigError is a setting that could not be loaded or makes no sense.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Component != "" {
		msg += " " + e.Component
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }
