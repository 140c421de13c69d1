package llm

import (
	"errors"
	"time"

	"github.com/ebonhold/charforge/schema"
)

// Error represents a provider-neutral LLM error.
// Every failure inside this subsystem is classified into one of these before
// it crosses the package boundary.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error // Original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeConfiguration covers missing or invalid setup: API key, model,
	// unknown provider name. Deterministic, never retried.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeRateLimit is a backend throttle signal. Retried with backoff.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeUnauthorized is an HTTP 401/403. Not retried.
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeInvalidRequest is a malformed request. Not retried.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	// ErrorTypeInvalidResponse covers unparseable JSON payloads and schema
	// validation failures. Retried once on the assumption the model may
	// produce better output on a fresh attempt.
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	// ErrorTypeProvider is the terminal catch-all surfaced to callers.
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeNetwork covers connection and DNS failures. Retried.
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout is a per-attempt deadline expiry. Retried.
	ErrorTypeTimeout ErrorType = "timeout"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeConfiguration
	}
	return false
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// IsSchemaViolation checks whether an error wraps a schema validation
// failure on a provider response.
func IsSchemaViolation(err error) bool {
	var valErr *schema.ValidationError
	return errors.As(err, &valErr)
}

// IsInvalidResponseError checks if an error is an invalid-response error
// (unparseable JSON or a schema violation).
func IsInvalidResponseError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeInvalidResponse
	}
	return false
}

// ExtractRetryAfter extracts the retry-after duration from an error.
func ExtractRetryAfter(err error) *time.Duration {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.RetryAfter
	}
	return nil
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeConfiguration,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Message:     message,
		Retryable:   true,
		RetryAfter:  retryAfter,
		StatusCode:  429,
		ProviderErr: providerErr,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string, statusCode int, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeUnauthorized,
		Message:     message,
		Retryable:   false,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewInvalidRequestError creates a new invalid request error.
func NewInvalidRequestError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeInvalidRequest,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewInvalidResponseError creates a new invalid response error.
// Invalid responses are retryable: model output non-determinism may
// self-correct on a fresh request.
func NewInvalidResponseError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeInvalidResponse,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewProviderError creates a new provider error.
func NewProviderError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeProvider,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewTransientProviderError creates a retryable provider error for 5xx-class
// failures.
func NewTransientProviderError(message string, statusCode int, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeProvider,
		Message:     message,
		Retryable:   true,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewNetworkError creates a new network error.
func NewNetworkError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeNetwork,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeTimeout,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}
