package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeRemote         ErrorType = "REMOTE_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// ErrInvalidInput marks malformed caller input.
var ErrInvalidInput = errors.New("invalid input")

// Controller state errors
var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNoPendingDelete  = errors.New("no delete confirmation is pending for this record")
	ErrControllerClosed = errors.New("controller has been closed")
	ErrUnknownResource  = errors.New("unknown resource")
	ErrUnknownField     = errors.New("unknown field")
	ErrNotEditing       = errors.New("form is not in edit mode")
	ErrFormLoading      = errors.New("record is still loading")
	ErrNoActiveForm     = errors.New("no form is open")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, http.StatusInternalServerError)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewRemoteError wraps a failure reported by the remote collection. The
// message is kept verbatim so it can be shown to the operator as-is.
func NewRemoteError(message string, status int) *AppError {
	return NewAppError(ErrorTypeRemote, message, http.StatusBadGateway).
		WithDetail("status", status)
}

// ValidationError represents validation errors for multiple fields
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// NewValidationErrors creates a new validation errors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}

// FromFieldErrors builds a ValidationErrors from a field -> message mapping,
// ordered by field name so output is stable.
func FromFieldErrors(fields map[string]string) *ValidationErrors {
	ve := NewValidationErrors()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ve.Add(name, fields[name], nil)
	}
	return ve
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) *ValidationErrors {
	ve.Errors = append(ve.Errors, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
	return ve
}

// HasErrors returns true if there are validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Fields returns the errors as a field -> message mapping.
func (ve *ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(ve.Errors))
	for _, e := range ve.Errors {
		out[e.Field] = e.Message
	}
	return out
}

// ToAppError converts validation errors to an AppError whose details carry
// the field -> message mapping under "fields".
func (ve *ValidationErrors) ToAppError() *AppError {
	if !ve.HasErrors() {
		return nil
	}

	appErr := NewAppError(ErrorTypeValidation, "validation failed", http.StatusUnprocessableEntity)
	appErr.Details["fields"] = ve.Fields()
	return appErr.WithCause(ve)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeValidation
	}
	return errors.Is(err, ErrUnknownField)
}

// IsRemote checks if an error was reported by the remote collection, including
// the not-found case.
func IsRemote(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeRemote || appErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsConflict reports whether err rejects an action the controller's current
// state does not allow.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSubmitInProgress) || errors.Is(err, ErrNoPendingDelete) ||
		errors.Is(err, ErrFormLoading) || errors.Is(err, ErrNoActiveForm)
}

// Message returns the text to surface to an operator for err: the AppError
// message without its cause chain, or err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
