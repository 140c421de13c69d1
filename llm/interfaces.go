package llm

import (
	"context"
)

// Client provides a provider-neutral interface for structured LLM calls.
// Implementations handle provider-specific wire formats, rate limiting, and
// retries internally: callers see either a valid ChatResponse or one terminal
// typed error.
type Client interface {
	// Chat sends a request and returns the provider's JSON object response.
	// When req.Schema is set, the response has passed schema validation.
	Chat(ctx context.Context, req *ChatRequest) (ChatResponse, error)

	// ChatWithSchema behaves like Chat but requires req.Schema to be set.
	ChatWithSchema(ctx context.Context, req *ChatRequest) (ChatResponse, error)

	// TestConnection issues a minimal chat call and reports whether it
	// succeeded. It never returns an error: failures are logged and
	// converted into a false result.
	TestConnection(ctx context.Context) bool
}

// Admitter is the admission-control contract a Retryer acquires before every
// network attempt. *Limiter is the production implementation.
type Admitter interface {
	Acquire(ctx context.Context) error
}
