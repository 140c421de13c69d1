package llm

import (
	"encoding/json"

	"github.com/ebonhold/charforge/schema"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is a single role/content pair in a conversation.
type Message struct {
	Role    MessageRole
	Content string
}

// ChatRequest is a provider-neutral chat-style request.
type ChatRequest struct {
	Messages []Message
	System   string
	// Schema, when set, declares the shape the provider's JSON response must
	// satisfy. The response is validated before being returned to the caller.
	Schema *schema.Schema
}

// ChatResponse is the schema-validated JSON object returned by a provider.
type ChatResponse map[string]any

// NewUserMessage creates a user message with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates an assistant message with the given text.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// Validate performs the local contract check on a request before any network
// attempt: messages must be non-empty and the last message must carry both a
// role and non-empty content.
func (r *ChatRequest) Validate() error {
	if r == nil || len(r.Messages) == 0 {
		return NewInvalidRequestError("invalid message format: messages must not be empty", nil)
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role == "" || last.Content == "" {
		return NewInvalidRequestError("invalid message format: last message needs role and content", nil)
	}
	return nil
}

// LastContent returns the content of the final message, or empty string.
func (r *ChatRequest) LastContent() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// ToJSON marshals a response for debugging/logging purposes.
func (r ChatResponse) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
