// Package openai implements the llm.Client interface for OpenAI-compatible
// chat completion APIs.
//
// Structured output uses the json_object response format with the response
// schema appended to the system prompt, since the completions endpoint has no
// forced-tool equivalent that returns the payload directly.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
)

// Client implements llm.Client for OpenAI-compatible APIs.
type Client struct {
	api     *openai.Client
	cfg     llm.ClientConfig
	retryer *llm.Retryer
	logger  zerolog.Logger
}

// New creates an OpenAI client. EndpointURL may point at any
// OpenAI-compatible server; it defaults to api.openai.com.
func New(cfg llm.ClientConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, llm.NewConfigurationError("openai: api key is required", nil)
	}
	if cfg.Model == "" {
		return nil, llm.NewConfigurationError("openai: model is required", nil)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.EndpointURL != "" {
		config.BaseURL = cfg.EndpointURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	componentLogger := logger.With().Str("component", "openaiClient").Logger()
	limiter := llm.NewLimiter(cfg.MaxRequests, cfg.Window)
	return &Client{
		api:     openai.NewClientWithConfig(config),
		cfg:     cfg,
		retryer: llm.NewRetryer(limiter, cfg.MaxRetries, cfg.BaseDelay, cfg.MaxDelay, componentLogger),
		logger:  componentLogger,
	}, nil
}

// Chat implements llm.Client.Chat.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (llm.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.retryer.Do(ctx, func(ctx context.Context) (llm.ChatResponse, error) {
		return c.send(ctx, req)
	})
}

// ChatWithSchema implements llm.Client.ChatWithSchema.
func (c *Client) ChatWithSchema(ctx context.Context, req *llm.ChatRequest) (llm.ChatResponse, error) {
	if req == nil || req.Schema == nil {
		return nil, llm.NewInvalidRequestError("schema is required", nil)
	}
	return c.Chat(ctx, req)
}

// TestConnection implements llm.Client.TestConnection.
func (c *Client) TestConnection(ctx context.Context) bool {
	req := &llm.ChatRequest{Messages: []llm.Message{llm.NewUserMessage("Reply with the JSON object {\"ok\": true}.")}}
	if _, err := c.Chat(ctx, req); err != nil {
		c.logger.Warn().Err(err).Msg("Connection test failed")
		return false
	}
	return true
}

func (c *Client) send(ctx context.Context, req *llm.ChatRequest) (llm.ChatResponse, error) {
	chatReq, err := c.buildRequest(req)
	if err != nil {
		return nil, err
	}

	completion, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, llm.NewInvalidResponseError("openai: empty completion", nil)
	}

	resp, err := llm.ExtractJSONObject(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateResponse(resp, req.Schema); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) buildRequest(req *llm.ChatRequest) (openai.ChatCompletionRequest, error) {
	system := req.System
	chatReq := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: int(c.cfg.MaxTokens),
	}
	if c.cfg.Temperature != nil {
		chatReq.Temperature = float32(*c.cfg.Temperature)
	}

	if req.Schema != nil {
		schemaMap, err := req.Schema.JSONMap()
		if err != nil {
			return openai.ChatCompletionRequest{}, llm.NewInvalidRequestError("openai: cannot encode schema", err)
		}
		schemaJSON, err := json.Marshal(schemaMap)
		if err != nil {
			return openai.ChatCompletionRequest{}, llm.NewInvalidRequestError("openai: cannot encode schema", err)
		}
		if system != "" {
			system += "\n\n"
		}
		system += fmt.Sprintf("Respond with a single JSON object matching this JSON Schema:\n%s", schemaJSON)
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == llm.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	chatReq.Messages = messages
	return chatReq, nil
}

// classifyError maps go-openai failures into the llm.Error taxonomy.
func classifyError(err error) error {
	var apierr *openai.APIError
	if errors.As(err, &apierr) {
		switch apierr.HTTPStatusCode {
		case 401, 403:
			return llm.NewUnauthorizedError("openai: unauthorized", apierr.HTTPStatusCode, err)
		case 429:
			return llm.NewRateLimitError("openai: rate limited", nil, err)
		case 400:
			return llm.NewInvalidRequestError("openai: invalid request", err)
		default:
			if apierr.HTTPStatusCode >= 500 {
				return llm.NewTransientProviderError("openai: server error", apierr.HTTPStatusCode, err)
			}
			return llm.NewProviderError("openai: API error", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError("openai: request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewTimeoutError("openai: request canceled", err)
	}
	return llm.NewNetworkError("openai: request failed", err)
}

var _ llm.Client = (*Client)(nil)
