package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/ebonhold/charforge/schema"
)

func TestIsRateLimitError(t *testing.T) {
	err := NewRateLimitError("rate limit exceeded", nil, nil)
	if !IsRateLimitError(err) {
		t.Error("Expected IsRateLimitError to return true for rate limit error")
	}

	regularErr := NewProviderError("some error", nil)
	if IsRateLimitError(regularErr) {
		t.Error("Expected IsRateLimitError to return false for non-rate-limit error")
	}
}

func TestIsConfigurationError(t *testing.T) {
	err := NewConfigurationError("api key is required", nil)
	if !IsConfigurationError(err) {
		t.Error("Expected IsConfigurationError to return true for configuration error")
	}
	if IsConfigurationError(NewProviderError("some error", nil)) {
		t.Error("Expected IsConfigurationError to return false for provider error")
	}
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limit", NewRateLimitError("rate limit", nil, nil), true},
		{"network", NewNetworkError("connection refused", nil), true},
		{"timeout", NewTimeoutError("deadline exceeded", nil), true},
		{"invalid response", NewInvalidResponseError("invalid JSON response", nil), true},
		{"transient provider", NewTransientProviderError("server error", 500, nil), true},
		{"configuration", NewConfigurationError("missing key", nil), false},
		{"unauthorized", NewUnauthorizedError("unauthorized", 401, nil), false},
		{"invalid request", NewInvalidRequestError("bad message", nil), false},
		{"provider", NewProviderError("terminal", nil), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.retryable {
			t.Errorf("%s: expected retryable=%v, got %v", tc.name, tc.retryable, got)
		}
	}
}

func TestExtractRetryAfter(t *testing.T) {
	retryAfter := 5 * time.Minute
	err := NewRateLimitError("rate limit", &retryAfter, nil)
	extracted := ExtractRetryAfter(err)
	if extracted == nil {
		t.Fatal("Expected non-nil retry after")
	}
	if *extracted != retryAfter {
		t.Errorf("Expected retry after %v, got %v", retryAfter, *extracted)
	}

	if ExtractRetryAfter(NewProviderError("some error", nil)) != nil {
		t.Error("Expected nil retry after for non-rate-limit error")
	}
}

func TestIsSchemaViolation(t *testing.T) {
	valErr := &schema.ValidationError{Violations: []schema.Violation{{Path: "background", Message: "required field is missing"}}}
	wrapped := NewInvalidResponseError("response failed schema validation", valErr)
	if !IsSchemaViolation(wrapped) {
		t.Error("Expected IsSchemaViolation to see through the wrapper")
	}
	if IsSchemaViolation(NewInvalidResponseError("invalid JSON response", nil)) {
		t.Error("Expected IsSchemaViolation to be false for a parse failure")
	}
}

func TestErrorUnwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := NewProviderError("wrapped", originalErr)
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Expected error to unwrap to original error")
	}
}
