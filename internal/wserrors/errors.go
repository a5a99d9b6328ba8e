// Package wserrors provides a lightweight structured error type (WorkspaceError)
// for category-based classification and exit-code mapping in the CLI.
package wserrors

import (
	"fmt"
)

// ErrorCategory represents the category of a workspace error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// Lifecycle state errors
	CategoryNotFound ErrorCategory = "notfound"
	CategoryExists   ErrorCategory = "exists"

	// Privilege and filesystem errors
	CategoryPrivilege ErrorCategory = "privilege"
	CategoryIO        ErrorCategory = "io"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// WorkspaceError is a structured error with category, severity, and context
type WorkspaceError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for WorkspaceError
type ContextFields map[string]any

// Error implements the error interface
func (e *WorkspaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *WorkspaceError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *WorkspaceError) WithContext(key string, value any) *WorkspaceError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new WorkspaceError
func New(category ErrorCategory, severity ErrorSeverity, message string) *WorkspaceError {
	return &WorkspaceError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new WorkspaceError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *WorkspaceError {
	return &WorkspaceError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if we, ok := err.(*WorkspaceError); ok {
		return we.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a WorkspaceError
func GetCategory(err error) ErrorCategory {
	if we, ok := err.(*WorkspaceError); ok {
		return we.Category
	}
	return CategoryInternal
}
