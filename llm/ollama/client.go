// Package ollama implements the llm.Client interface for a local Ollama
// server. No API key is required; EndpointURL selects the host and defaults
// to the standard local address.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
)

const defaultEndpoint = "http://localhost:11434"

// Client implements llm.Client backed by an Ollama server.
type Client struct {
	api     *api.Client
	cfg     llm.ClientConfig
	retryer *llm.Retryer
	logger  zerolog.Logger
}

// New creates an Ollama client.
func New(cfg llm.ClientConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.Model == "" {
		return nil, llm.NewConfigurationError("ollama: model is required", nil)
	}

	endpoint := cfg.EndpointURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	// Bare host:port values are accepted, matching OLLAMA_HOST conventions.
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, llm.NewConfigurationError("ollama: invalid endpoint URL", err)
	}

	httpClient := http.DefaultClient
	if cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	componentLogger := logger.With().Str("component", "ollamaClient").Logger()
	limiter := llm.NewLimiter(cfg.MaxRequests, cfg.Window)
	return &Client{
		api:     api.NewClient(base, httpClient),
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

// TestConnection implements llm.Client.TestConnection. A minimal chat call is
// used rather than a server ping so a reachable host with a missing model
// still reports unhealthy.
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

	var content string
	respond := func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	}
	if err := c.api.Chat(ctx, chatReq, respond); err != nil {
		return nil, classifyError(err)
	}

	resp, err := llm.ExtractJSONObject(content)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateResponse(resp, req.Schema); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) buildRequest(req *llm.ChatRequest) (*api.ChatRequest, error) {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{Role: string(msg.Role), Content: msg.Content})
	}

	options := map[string]any{}
	if c.cfg.Temperature != nil {
		options["temperature"] = *c.cfg.Temperature
	}
	if c.cfg.MaxTokens > 0 {
		options["num_predict"] = c.cfg.MaxTokens
	}

	chatReq := &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   new(bool),
		Options:  options,
	}
	if req.Schema != nil {
		schemaMap, err := req.Schema.JSONMap()
		if err != nil {
			return nil, llm.NewInvalidRequestError("ollama: cannot encode schema", err)
		}
		format, err := json.Marshal(schemaMap)
		if err != nil {
			return nil, llm.NewInvalidRequestError("ollama: cannot encode schema", err)
		}
		chatReq.Format = format
	}
	return chatReq, nil
}

// classifyError maps Ollama API failures into the llm.Error taxonomy.
func classifyError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return llm.NewUnauthorizedError("ollama: unauthorized", statusErr.StatusCode, err)
		case 429:
			return llm.NewRateLimitError("ollama: rate limited", nil, err)
		case 400, 404:
			return llm.NewInvalidRequestError("ollama: invalid request", err)
		default:
			if statusErr.StatusCode >= 500 {
				return llm.NewTransientProviderError("ollama: server error", statusErr.StatusCode, err)
			}
			return llm.NewProviderError("ollama: API error", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError("ollama: request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewTimeoutError("ollama: request canceled", err)
	}
	return llm.NewNetworkError("ollama: request failed", err)
}

var _ llm.Client = (*Client)(nil)
