package errors

import (
	"fmt"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "CONFIG_ERROR"
	ErrorTypeExporter ErrorType = "EXPORTER_ERROR"
	ErrorTypeResource ErrorType = "RESOURCE_ERROR"
	ErrorTypeState    ErrorType = "STATE_ERROR"
)

// AppError represents a structured error returned by the SDK
type AppError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	ErrorCode string    `json:"errorCode"`
	Recovery  string    `json:"recoverySuggestion,omitempty"`
	Err       error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.ErrorCode != "" && t.ErrorCode == e.ErrorCode
}

// Code returns the SDK-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsRetryable reports whether the failure came from the export pipeline
// rather than from the caller's configuration or lifecycle misuse.
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeExporter:
		return true
	default:
		return false
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string, errorCode string, suggestion string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Message:   message,
		ErrorCode: errorCode,
		Recovery:  suggestion,
		Err:       err,
	}
}

// NewExporterError creates an exporter construction error
func NewExporterError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeExporter,
		Message:   message,
		ErrorCode: errorCode,
		Recovery:  "Check that the collector endpoint is reachable and the token is valid.",
		Err:       err,
	}
}

// NewResourceError creates a resource detection error
func NewResourceError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeResource,
		Message:   message,
		ErrorCode: errorCode,
		Err:       err,
	}
}

// NewStateError creates an error for calls made in the wrong lifecycle state
func NewStateError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:      ErrorTypeState,
		Message:   message,
		ErrorCode: errorCode,
		Recovery:  suggestion,
	}
}
