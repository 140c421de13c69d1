// Package providers wires the concrete provider clients into an llm.Registry.
// It is the only package that imports every backend, so the rest of the
// program depends on llm.Client alone.
package providers

import (
	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
	"github.com/ebonhold/charforge/llm/anthropic"
	"github.com/ebonhold/charforge/llm/mock"
	"github.com/ebonhold/charforge/llm/ollama"
	"github.com/ebonhold/charforge/llm/openai"
)

// NewRegistry returns a registry with every built-in provider registered.
func NewRegistry() *llm.Registry {
	registry := llm.NewRegistry()
	registry.Register(llm.ProviderAnthropic, func(cfg llm.ClientConfig, logger zerolog.Logger) (llm.Client, error) {
		return anthropic.New(cfg, logger)
	})
	registry.Register(llm.ProviderOpenAI, func(cfg llm.ClientConfig, logger zerolog.Logger) (llm.Client, error) {
		return openai.New(cfg, logger)
	})
	registry.Register(llm.ProviderOllama, func(cfg llm.ClientConfig, logger zerolog.Logger) (llm.Client, error) {
		return ollama.New(cfg, logger)
	})
	registry.Register(llm.ProviderMock, func(cfg llm.ClientConfig, logger zerolog.Logger) (llm.Client, error) {
		return mock.New(cfg, logger)
	})
	return registry
}
