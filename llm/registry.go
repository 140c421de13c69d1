package llm

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// ClientConfig holds the connection and policy parameters for one provider
// client. It is read from process configuration at startup and immutable for
// the process lifetime.
type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature *float64
	EndpointURL string

	// Rate limiting: at most MaxRequests per rolling Window.
	MaxRequests int
	Window      time.Duration

	// Retry policy. Zero values select the package defaults.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Timeout is the hard per-attempt HTTP timeout.
	Timeout time.Duration
}

// Factory constructs a Client from its configuration.
type Factory func(cfg ClientConfig, logger zerolog.Logger) (Client, error)

// Registry maps provider names to client factories. Providers register
// themselves by name; callers create clients through Create. The set of
// registered names is closed at wire-up time, keeping dispatch extensible
// without a central switch statement.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given provider name, replacing any
// previous registration for that name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates the named provider's client.
// An unknown name is a configuration error; construction failures from the
// underlying factory are wrapped with context but keep their classification.
func (r *Registry) Create(name string, cfg ClientConfig, logger zerolog.Logger) (Client, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf("unknown provider: %s", name), nil)
	}

	client, err := factory(cfg, logger)
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("failed to initialize provider %s", name), err)
	}
	return client, nil
}

// Providers returns the sorted list of registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.factories)
	sort.Strings(names)
	return names
}
