// Package generator is the caller-facing layer of the generation subsystem:
// it resolves a template for a request type, renders it with the caller's
// context variables, and runs a schema-constrained chat against the
// configured provider.
package generator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
	"github.com/ebonhold/charforge/prompt"
)

// Well-known request types shipped as template files. The service accepts any
// request type a template file exists for; these constants cover the bundled
// set.
const (
	RequestCharacterBackground = "character_background"
	RequestCharacterEquipment  = "character_equipment"
	RequestCharacterSpells     = "character_spells"
	RequestCharacterTraits     = "character_traits"
)

// Service generates structured content through one provider client.
type Service struct {
	provider string
	client   llm.Client
	loader   *prompt.Loader
	logger   zerolog.Logger
}

// New creates a generation service bound to one provider client and a
// template loader.
func New(provider string, client llm.Client, loader *prompt.Loader, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		client:   client,
		loader:   loader,
		logger:   logger.With().Str("component", "generator").Str("provider", provider).Logger(),
	}
}

// Generate renders the template for requestType with contextVars and returns
// the provider's schema-validated response.
func (s *Service) Generate(ctx context.Context, requestType string, contextVars map[string]any) (llm.ChatResponse, error) {
	tmpl, err := s.loader.Get(requestType, s.provider)
	if err != nil {
		return nil, err
	}
	if tmpl.Schema == nil {
		return nil, &prompt.TemplateError{
			RequestType: requestType,
			Reason:      "template has no response schema",
		}
	}

	system, user := prompt.Render(tmpl, contextVars)
	req := &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage(user)},
		System:   system,
		Schema:   tmpl.Schema,
	}

	s.logger.Debug().
		Str("request_type", requestType).
		Int("context_vars", len(contextVars)).
		Msg("Generating structured content")

	resp, err := s.client.ChatWithSchema(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", requestType, err)
	}
	return resp, nil
}

// TestConnection reports whether the underlying provider is reachable.
func (s *Service) TestConnection(ctx context.Context) bool {
	return s.client.TestConnection(ctx)
}
