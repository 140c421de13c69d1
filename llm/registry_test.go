package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubClient struct{}

func (stubClient) Chat(_ context.Context, _ *ChatRequest) (ChatResponse, error) {
	return ChatResponse{}, nil
}
func (stubClient) ChatWithSchema(_ context.Context, _ *ChatRequest) (ChatResponse, error) {
	return ChatResponse{}, nil
}
func (stubClient) TestConnection(_ context.Context) bool { return true }

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Create("gemini", ClientConfig{}, zerolog.Nop())
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown provider: gemini") {
		t.Errorf("expected unknown provider message, got %q", err.Error())
	}
}

func TestRegistry_CreateRegisteredProvider(t *testing.T) {
	registry := NewRegistry()
	registry.Register("stub", func(_ ClientConfig, _ zerolog.Logger) (Client, error) {
		return stubClient{}, nil
	})

	client, err := registry.Create("stub", ClientConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}
}

func TestRegistry_ConstructionFailureWrapped(t *testing.T) {
	registry := NewRegistry()
	registry.Register("broken", func(_ ClientConfig, _ zerolog.Logger) (Client, error) {
		return nil, NewConfigurationError("api key is required", nil)
	})

	_, err := registry.Create("broken", ClientConfig{}, zerolog.Nop())
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to initialize provider") {
		t.Errorf("expected initialization context in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "api key is required") {
		t.Errorf("expected underlying cause in message, got %q", err.Error())
	}
}

func TestRegistry_Providers(t *testing.T) {
	registry := NewRegistry()
	registry.Register("b", func(_ ClientConfig, _ zerolog.Logger) (Client, error) { return stubClient{}, nil })
	registry.Register("a", func(_ ClientConfig, _ zerolog.Logger) (Client, error) { return stubClient{}, nil })

	names := registry.Providers()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected sorted provider names, got %v", names)
	}
}

func TestChatRequest_Validate(t *testing.T) {
	cases := []struct {
		name  string
		req   *ChatRequest
		valid bool
	}{
		{"valid", &ChatRequest{Messages: []Message{NewUserMessage("hello")}}, true},
		{"empty messages", &ChatRequest{}, false},
		{"missing content", &ChatRequest{Messages: []Message{{Role: RoleUser}}}, false},
		{"missing role", &ChatRequest{Messages: []Message{{Content: "hello"}}}, false},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: expected valid, got %v", tc.name, err)
		}
		if !tc.valid {
			var llmErr *Error
			if err == nil {
				t.Errorf("%s: expected error", tc.name)
			} else if !errors.As(err, &llmErr) || llmErr.Type != ErrorTypeInvalidRequest {
				t.Errorf("%s: expected invalid request error, got %v", tc.name, err)
			}
		}
	}
}
