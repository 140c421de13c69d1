// Package config loads the charforge configuration file and derives
// per-provider client settings from it. Defaults are overlaid with the user's
// YAML file, then with environment variables for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds one provider's connection and policy settings.
// Durations are expressed in seconds in the YAML file.
type ProviderConfig struct {
	APIKey         string   `yaml:"api_key,omitempty"`
	Model          string   `yaml:"model,omitempty"`
	MaxTokens      int64    `yaml:"max_tokens,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
	EndpointURL    string   `yaml:"endpoint_url,omitempty"`
	MaxRequests    int      `yaml:"max_requests,omitempty"`
	WindowSeconds  int      `yaml:"window_seconds,omitempty"`
	MaxRetries     int      `yaml:"max_retries,omitempty"`
	BaseDelayMS    int      `yaml:"base_delay_ms,omitempty"`
	MaxDelayMS     int      `yaml:"max_delay_ms,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
}

// Config is the process configuration.
type Config struct {
	// Provider selects which registered provider handles generation requests.
	Provider string `yaml:"provider,omitempty"`
	// Env selects environment-specific template variants (e.g. "production").
	Env string `yaml:"env,omitempty"`

	TemplateDir  string `yaml:"template_dir,omitempty"`
	DatabasePath string `yaml:"database_path,omitempty"`

	Providers map[string]*ProviderConfig `yaml:"providers,omitempty"`
}

// GetConfigPath returns the config file path, honoring CHARFORGE_CONFIG_PATH.
func GetConfigPath() string {
	if envPath := os.Getenv("CHARFORGE_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.charforge/config.yaml"
	}
	return filepath.Join(homeDir, ".charforge", "config.yaml")
}

// Load reads the configuration at path, merging it over the defaults and
// applying environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	defaults := Config{
		Provider:     "mock",
		TemplateDir:  "templates",
		DatabasePath: "charforge.db",
		Providers: map[string]*ProviderConfig{
			"anthropic": {
				Model:          "claude-sonnet-4-20250514",
				MaxTokens:      2048,
				MaxRequests:    50,
				WindowSeconds:  60,
				TimeoutSeconds: 60,
			},
			"openai": {
				Model:          "gpt-4o",
				MaxTokens:      2048,
				EndpointURL:    "https://api.openai.com/v1",
				MaxRequests:    50,
				WindowSeconds:  60,
				TimeoutSeconds: 60,
			},
			"ollama": {
				Model:          "llama3.2",
				EndpointURL:    "http://localhost:11434",
				MaxRequests:    120,
				WindowSeconds:  60,
				TimeoutSeconds: 120,
			},
			"mock": {},
		},
	}

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err == nil {
		data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
		}
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", expandedPath, err)
		}
		if err := mergo.Merge(&defaults, fileConfig, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	applyEnvOverrides(&defaults)
	return &defaults, nil
}

// Save writes the configuration to the given path, creating the directory as
// needed.
func Save(cfg *Config, path string) error {
	expandedPath := expandPath(path)
	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// provider returns the named provider's section, creating an empty one when
// the file carries no section for it.
func (c *Config) provider(name string) *ProviderConfig {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	if c.Providers[name] == nil {
		c.Providers[name] = &ProviderConfig{}
	}
	return c.Providers[name]
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func secondsOrZero(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func millisOrZero(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
