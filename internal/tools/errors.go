package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry failures. Callers match with errors.Is.
var (
	// ErrDuplicateTool is returned when registering a name twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrUnknownTool is returned when dispatching an unregistered name.
	ErrUnknownTool = errors.New("unknown tool")
)

// ValidationError reports an argument that fails a tool's declared schema.
// Dispatch returns it before any tool code runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// InvalidParametersError wraps a ValidationError with the tool it came from.
type InvalidParametersError struct {
	Tool string
	Err  error
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %v", e.Tool, e.Err)
}

func (e *InvalidParametersError) Unwrap() error { return e.Err }
