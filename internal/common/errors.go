package common

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration for configuration-related errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeValidation for validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeBrowser for browser lifecycle errors
	ErrorTypeBrowser ErrorType = "browser"
	// ErrorTypeCapture for page rendering and element capture errors
	ErrorTypeCapture ErrorType = "capture"
	// ErrorTypeCheck for heuristic check failures
	ErrorTypeCheck ErrorType = "check"
	// ErrorTypeStorage for report archive errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeInternal for internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// AuditorError represents a structured error with context
type AuditorError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *AuditorError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *AuditorError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AuditorError) WithContext(key string, value interface{}) *AuditorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AuditorError) WithCause(cause error) *AuditorError {
	e.Cause = cause
	return e
}

// WithDetails sets the error details
func (e *AuditorError) WithDetails(details string) *AuditorError {
	e.Details = details
	return e
}

// NewError creates a new AuditorError
func NewError(errorType ErrorType, code, message string) *AuditorError {
	return &AuditorError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AuditorError {
	return NewError(ErrorTypeConfiguration, code, message)
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AuditorError {
	return NewError(ErrorTypeValidation, code, message)
}

// NewBrowserError creates a browser error
func NewBrowserError(code, message string) *AuditorError {
	return NewError(ErrorTypeBrowser, code, message)
}

// NewCaptureError creates a capture error
func NewCaptureError(code, message string) *AuditorError {
	return NewError(ErrorTypeCapture, code, message)
}

// NewCheckError creates a check error
func NewCheckError(code, message string) *AuditorError {
	return NewError(ErrorTypeCheck, code, message)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *AuditorError {
	return NewError(ErrorTypeStorage, code, message)
}

// NewInternalError creates an internal system error
func NewInternalError(code, message string) *AuditorError {
	return NewError(ErrorTypeInternal, code, message)
}

// WrapError wraps an existing error with AuditorError context
func WrapError(err error, errorType ErrorType, code, message string) *AuditorError {
	return &AuditorError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
	}
}

// IsErrorType reports whether err is an AuditorError of the given type
func IsErrorType(err error, errorType ErrorType) bool {
	var ae *AuditorError
	if errors.As(err, &ae) {
		return ae.Type == errorType
	}
	return false
}
