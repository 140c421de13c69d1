package llm

import (
	"github.com/ebonhold/charforge/schema"
)

// ValidateResponse checks a provider response against the request's schema.
// A nil schema validates trivially. A violation is wrapped as a retryable
// invalid-response error: the retry loop re-issues the whole request once on
// the assumption the model failed to follow instructions, then gives up.
func ValidateResponse(resp ChatResponse, s *schema.Schema) error {
	if s == nil {
		return nil
	}
	if err := s.Validate(map[string]any(resp)); err != nil {
		return NewInvalidResponseError("response failed schema validation", err)
	}
	return nil
}
