// Package apperrors defines application-level error types.
package apperrors

import "fmt"

// ValidationError indicates manifest or request validation failed.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// CatalogError indicates a capability catalog lookup failed.
type CatalogError struct {
	Cause  error
	Entity string // "capability" or "group"
	Name   string
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog error: %s %s: %v", e.Entity, e.Name, e.Cause)
	}
	return fmt.Sprintf("catalog error: %s %s", e.Entity, e.Name)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// NewCatalogError creates a new catalog error.
func NewCatalogError(entity, name string, cause error) *CatalogError {
	return &CatalogError{
		Entity: entity,
		Name:   name,
		Cause:  cause,
	}
}

// ExecutionError indicates a grant operation failed (not validation).
type ExecutionError struct {
	Cause   error
	Group   string
	Message string
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("execution failed for group %s: %s: %v", e.Group, e.Message, e.Cause)
	}
	return fmt.Sprintf("execution failed for group %s: %s", e.Group, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates a new execution error.
func NewExecutionError(group, message string, cause error) *ExecutionError {
	return &ExecutionError{
		Group:   group,
		Message: message,
		Cause:   cause,
	}
}

// StateError indicates the grant state store could not be read or written.
type StateError struct {
	Cause   error
	Path    string
	Message string
}

func (e *StateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("state error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("state error (%s): %s", e.Path, e.Message)
}

func (e *StateError) Unwrap() error {
	return e.Cause
}

// NewStateError creates a new state error.
func NewStateError(path, message string, cause error) *StateError {
	return &StateError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}
