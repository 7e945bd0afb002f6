package api

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError         ErrorType = "server_error"
	ErrorTypeInvalidRequest      ErrorType = "invalid_request"
	ErrorTypeUnknownProvider     ErrorType = "unknown_provider"
	ErrorTypeMissingCredential   ErrorType = "missing_credential"
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"
	ErrorTypeNoTextFound         ErrorType = "no_text_found"
)

// APIError represents a structured error with type, provider, param, and message.
// The underlying cause, when there is one, is kept for logging and is never
// serialized.
type APIError struct {
	Type     ErrorType `json:"type"`
	Code     string    `json:"code,omitempty"`
	Param    string    `json:"param,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Message  string    `json:"message"`

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (provider: %s)", e.Type, e.Message, e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.cause
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// IsType reports whether err is an *APIError of the given type.
func IsType(err error, t ErrorType) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewUnknownProviderError creates an APIError for a provider identifier
// that has no registered adapter.
func NewUnknownProviderError(id string) *APIError {
	return &APIError{
		Type:     ErrorTypeUnknownProvider,
		Provider: id,
		Message:  fmt.Sprintf("unknown model provider: %q", id),
	}
}

// NewMissingCredentialError creates an APIError for a credential that was
// not supplied. name is the setting the operator has to provide.
func NewMissingCredentialError(provider, name string) *APIError {
	return &APIError{
		Type:     ErrorTypeMissingCredential,
		Provider: provider,
		Message:  name + " is not set",
	}
}

// NewUpstreamError creates an APIError for a backend that could not be
// reached or answered with a failure. cause may be nil.
func NewUpstreamError(provider, message string, cause error) *APIError {
	return &APIError{
		Type:     ErrorTypeUpstreamUnavailable,
		Provider: provider,
		Message:  message,
		cause:    cause,
	}
}

// NewNoTextFoundError creates an APIError for a successful backend reply
// that carries no text at the expected location.
func NewNoTextFoundError(provider, path string) *APIError {
	return &APIError{
		Type:     ErrorTypeNoTextFound,
		Provider: provider,
		Param:    path,
		Message:  "no text in backend response",
	}
}
