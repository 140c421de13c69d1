package config

import (
	"os"

	"github.com/ebonhold/charforge/llm"
)

// applyEnvOverrides layers environment variables over the merged file
// configuration. Secrets never need to live in the config file.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.provider(llm.ProviderAnthropic).APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.provider(llm.ProviderOpenAI).APIKey = key
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.provider(llm.ProviderOpenAI).EndpointURL = base
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.provider(llm.ProviderOllama).EndpointURL = host
	}
	if provider := os.Getenv("CHARFORGE_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
}

// ClientConfig derives the llm.ClientConfig for the named provider.
func (c *Config) ClientConfig(name string) llm.ClientConfig {
	p := c.provider(name)
	return llm.ClientConfig{
		APIKey:      p.APIKey,
		Model:       p.Model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		EndpointURL: p.EndpointURL,
		MaxRequests: p.MaxRequests,
		Window:      secondsOrZero(p.WindowSeconds),
		MaxRetries:  p.MaxRetries,
		BaseDelay:   millisOrZero(p.BaseDelayMS),
		MaxDelay:    millisOrZero(p.MaxDelayMS),
		Timeout:     secondsOrZero(p.TimeoutSeconds),
	}
}
