// Package anthropic implements the llm.Client interface for Anthropic's
// Messages API.
//
// Structured output is obtained by forcing the model to call a single tool
// whose input schema is the request's response schema; the tool-use input is
// the structured payload. When the model answers with plain text instead, the
// text is parsed as JSON with a single wrapper layer tolerated.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
)

// structuredToolName is the tool the model is forced to call when a response
// schema is present.
const structuredToolName = "record_structured_output"

// Client implements llm.Client for Anthropic's API.
type Client struct {
	api     *anthropic.Client
	cfg     llm.ClientConfig
	retryer *llm.Retryer
	logger  zerolog.Logger
}

// New creates an Anthropic client. The configuration check happens here, once
// at construction: a missing API key or model is a configuration error and no
// client is returned.
func New(cfg llm.ClientConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, llm.NewConfigurationError("anthropic: api key is required", nil)
	}
	if cfg.Model == "" {
		return nil, llm.NewConfigurationError("anthropic: model is required", nil)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are handled by our own policy, not the SDK's.
		option.WithMaxRetries(0),
	}
	if cfg.EndpointURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.EndpointURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	api := anthropic.NewClient(opts...)

	componentLogger := logger.With().Str("component", "anthropicClient").Logger()
	limiter := llm.NewLimiter(cfg.MaxRequests, cfg.Window)
	return &Client{
		api:     &api,
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

// send performs a single network attempt: build, call, extract, validate.
func (c *Client) send(ctx context.Context, req *llm.ChatRequest) (llm.ChatResponse, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	message, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	resp, err := extractResponse(message)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateResponse(resp, req.Schema); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) buildParams(req *llm.ChatRequest) (anthropic.MessageNewParams, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if c.cfg.Temperature != nil {
		params.Temperature = anthropic.Float(*c.cfg.Temperature)
	}

	if req.Schema != nil {
		schemaMap, err := req.Schema.JSONMap()
		if err != nil {
			return anthropic.MessageNewParams{}, llm.NewInvalidRequestError("anthropic: cannot encode schema", err)
		}
		tool := anthropic.ToolParam{
			Name:        structuredToolName,
			Description: anthropic.String("Record the structured response matching the requested fields."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: schemaMap["properties"],
				Required:   req.Schema.Required,
			},
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: structuredToolName},
		}
	}
	return params, nil
}

// extractResponse pulls the structured payload out of the message: the forced
// tool call's input when present, otherwise the concatenated text parsed as a
// JSON object.
func extractResponse(message *anthropic.Message) (llm.ChatResponse, error) {
	var text string
	for _, blockUnion := range message.Content {
		switch block := blockUnion.AsAny().(type) {
		case anthropic.ToolUseBlock:
			var payload map[string]any
			data, err := json.Marshal(block.Input)
			if err != nil {
				return nil, llm.NewInvalidResponseError("invalid JSON response", err)
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return nil, llm.NewInvalidResponseError("invalid JSON response", err)
			}
			return llm.ChatResponse(payload), nil
		case anthropic.TextBlock:
			text += block.Text
		}
	}
	return llm.ExtractJSONObject(text)
}

// classifyError maps SDK and transport failures into the llm.Error taxonomy.
func classifyError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return llm.NewUnauthorizedError("anthropic: unauthorized", apierr.StatusCode, err)
		case 429:
			return llm.NewRateLimitError("anthropic: rate limited", retryAfterHeader(apierr), err)
		case 400:
			return llm.NewInvalidRequestError("anthropic: invalid request", err)
		default:
			if apierr.StatusCode >= 500 {
				return llm.NewTransientProviderError("anthropic: server error", apierr.StatusCode, err)
			}
			return llm.NewProviderError("anthropic: API error", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError("anthropic: request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewTimeoutError("anthropic: request canceled", err)
	}
	return llm.NewNetworkError("anthropic: request failed", err)
}

// retryAfterHeader parses the Retry-After response header, supporting both
// delta-seconds and HTTP-date forms.
func retryAfterHeader(apierr *anthropic.Error) *time.Duration {
	if apierr.Response == nil {
		return nil
	}
	value := apierr.Response.Header.Get("Retry-After")
	if value == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		d := time.Duration(seconds) * time.Second
		return &d
	}
	if at, err := time.Parse(time.RFC1123, value); err == nil {
		if d := time.Until(at); d > 0 {
			return &d
		}
	}
	return nil
}

var _ llm.Client = (*Client)(nil)
