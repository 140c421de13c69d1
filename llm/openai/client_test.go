package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
	"github.com/ebonhold/charforge/schema"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(llm.ClientConfig{Model: "gpt-4o"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !llm.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(llm.ClientConfig{APIKey: "test-key"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing model, got nil")
	}
	if !llm.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func newServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(llm.ClientConfig{
		APIKey:      "test-key",
		Model:       "gpt-4o",
		EndpointURL: server.URL + "/v1",
		MaxRequests: 100,
		Window:      time.Minute,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return client
}

func TestChatParsesCompletion(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"background\": \"A quiet scholar.\"}"},
				"finish_reason": "stop"
			}]
		}`))
	})

	req := &llm.ChatRequest{Messages: []llm.Message{llm.NewUserMessage("Write a character background.")}}
	resp, err := client.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Chat() returned error: %v", err)
	}
	if resp["background"] != "A quiet scholar." {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestChatWithSchemaValidatesResponse(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"wrong\": true}"},
				"finish_reason": "stop"
			}]
		}`))
	})

	req := &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("Write a character background.")},
		Schema: &schema.Schema{
			Type:       "object",
			Properties: map[string]*schema.Schema{"background": {Type: "string"}},
			Required:   []string{"background"},
		},
	}
	_, err := client.ChatWithSchema(context.Background(), req)
	if err == nil {
		t.Fatal("expected schema validation error, got nil")
	}
	if !llm.IsSchemaViolation(err) {
		t.Errorf("expected a schema violation in the error chain, got %v", err)
	}
}

func TestChatClassifiesUnauthorized(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	})

	req := &llm.ChatRequest{Messages: []llm.Message{llm.NewUserMessage("Write a character background.")}}
	_, err := client.Chat(context.Background(), req)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var llmErr *llm.Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected *llm.Error, got %T", err)
	}
	if llmErr.Type != llm.ErrorTypeUnauthorized {
		t.Errorf("Type = %q, want %q", llmErr.Type, llm.ErrorTypeUnauthorized)
	}
	if llm.IsRetryableError(err) {
		t.Error("unauthorized errors must not be retryable")
	}
}
