// Package llm provides a provider-neutral abstraction layer for the LLM
// backends that generate character content.
//
// This package defines the common types, interfaces, and utilities that let
// the rest of the codebase request structured output from multiple providers
// (Anthropic, OpenAI, Ollama, plus a deterministic mock) without being coupled
// to any specific SDK.
//
// # Core Concepts
//
//  1. Requests: a ChatRequest carries an ordered list of role/content
//     messages, an optional system prompt, and an optional response schema.
//
//  2. Responses: a ChatResponse is a JSON object keyed by whatever fields the
//     request's schema declared. When a schema was supplied, the response has
//     already passed schema validation before it reaches the caller.
//
//  3. Client Interface: Chat() for structured calls, ChatWithSchema() when a
//     schema is mandatory, and TestConnection() for health checks.
//
//  4. Rate limiting: each client owns a sliding-window Limiter that admits at
//     most N requests per rolling window, blocking callers until safe.
//
//  5. Retries: the Retryer wraps every network attempt with exponential
//     backoff and jitter. Rate limits, timeouts, connection errors, and
//     invalid responses are retried; configuration and authorization errors
//     are not.
//
//  6. Errors: the Error type classifies every internal failure before it
//     crosses the package boundary. Callers never see raw SDK or HTTP errors:
//     they get either a valid ChatResponse or one terminal, typed error.
//
// # Extension Points
//
// To add a new provider:
//  1. Implement the Client interface in a subpackage.
//  2. Translate provider-specific errors into llm.Error values.
//  3. Register a Factory under the provider's name (see Registry).
package llm
