// Package mock provides a deterministic in-process llm.Client used for
// development and tests. It needs no credentials and no network: canned
// payloads are selected by keyword-matching the last user message.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ebonhold/charforge/llm"
)

// Client implements llm.Client with canned responses.
type Client struct {
	logger zerolog.Logger
}

// New creates a mock client. All configuration is accepted and ignored so the
// mock can stand in for any provider entry.
func New(cfg llm.ClientConfig, logger zerolog.Logger) (*Client, error) {
	return &Client{logger: logger.With().Str("component", "mockClient").Logger()}, nil
}

// Chat implements llm.Client.Chat.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (llm.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, llm.NewTimeoutError("mock: request canceled", err)
	}
	resp := respond(req.LastContent())
	c.logger.Debug().Int("fields", len(resp)).Msg("Serving canned response")
	return resp, nil
}

// ChatWithSchema implements llm.Client.ChatWithSchema. The canned payload is
// still validated against the schema so callers exercise the same failure
// path a live provider would produce.
func (c *Client) ChatWithSchema(ctx context.Context, req *llm.ChatRequest) (llm.ChatResponse, error) {
	if req == nil || req.Schema == nil {
		return nil, llm.NewInvalidRequestError("schema is required", nil)
	}
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateResponse(resp, req.Schema); err != nil {
		return nil, err
	}
	return resp, nil
}

// TestConnection implements llm.Client.TestConnection.
func (c *Client) TestConnection(ctx context.Context) bool {
	return true
}

// respond picks the canned payload whose keyword appears first in the
// keyword list, so matching is deterministic. An unrecognized prompt yields
// an error payload, not an error value, so the full response-handling path
// still runs.
func respond(prompt string) llm.ChatResponse {
	lowered := strings.ToLower(prompt)
	keyword, found := lo.Find(keywordOrder, func(keyword string) bool {
		return strings.Contains(lowered, keyword)
	})
	if !found {
		return llm.ChatResponse{"error": "unknown request type"}
	}
	return clone(cannedResponses[keyword])
}

var keywordOrder = []string{"background", "equipment", "spell", "trait"}

var cannedResponses = map[string]llm.ChatResponse{
	"background": {
		"background": "Raised in a traveling caravan, learned swordplay defending merchants on the Ardent Road, and now seeks the bandit captain who burned the wagons.",
		"personality_traits": []any{
			"Counts coins twice before trusting a stranger",
			"Hums caravan songs when nervous",
			"Keeps a promise even when it hurts",
		},
	},
	"equipment": {
		"weapons": []any{
			map[string]any{"name": "Longsword", "damage": "1d8 slashing"},
			map[string]any{"name": "Shortbow", "damage": "1d6 piercing"},
		},
		"armor": []any{
			map[string]any{"name": "Chain shirt", "armor_class": "13 + Dex (max 2)"},
		},
		"adventuring_gear": []any{"Bedroll", "Rations (5 days)", "50 ft hempen rope", "Tinderbox"},
	},
	"spell": {
		"cantrips":     []any{"Fire Bolt", "Prestidigitation", "Mage Hand"},
		"known_spells": []any{"Shield", "Magic Missile", "Detect Magic", "Misty Step"},
	},
	"trait": {
		"traits": []any{
			map[string]any{"name": "Darkvision", "description": "See in dim light within 60 feet as if it were bright light."},
			map[string]any{"name": "Fey Ancestry", "description": "Advantage on saving throws against being charmed."},
		},
	},
}

// clone deep-copies a canned payload so callers mutating the response,
// including nested slices and maps, cannot corrupt it for later calls.
func clone(resp llm.ChatResponse) llm.ChatResponse {
	data, err := json.Marshal(resp)
	if err != nil {
		// Canned payloads are static JSON-compatible literals.
		panic(fmt.Sprintf("mock: canned payload not serializable: %v", err))
	}
	var out llm.ChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("mock: canned payload round-trip failed: %v", err))
	}
	return out
}

var _ llm.Client = (*Client)(nil)
