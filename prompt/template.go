// Package prompt loads and renders the prompt templates that drive character
// generation requests.
//
// Templates live as YAML files in a template directory, one file per
// (request_type, provider-or-default) pair. Each file carries a system prompt,
// a user prompt, an optional response schema, and optional per-provider
// formatting hints. Loaded templates are immutable; the loader caches them and
// re-reads a file only when its modification time changes.
package prompt

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ebonhold/charforge/schema"
)

// Template is a named, versioned prompt definition.
// Instances are immutable once loaded.
type Template struct {
	RequestType       string
	SystemPrompt      string
	UserPrompt        string
	Schema            *schema.Schema
	ProviderOverrides map[string]map[string]string
}

// templateFile is the on-disk YAML shape of a template.
type templateFile struct {
	SystemPrompt      string                       `yaml:"system_prompt"`
	UserPrompt        string                       `yaml:"user_prompt"`
	Schema            *schema.Schema               `yaml:"schema,omitempty"`
	ProviderOverrides map[string]map[string]string `yaml:"provider_overrides,omitempty"`
}

// parseTemplate parses YAML template data and validates its shape.
// A malformed template is a fatal configuration error and must not be cached.
func parseTemplate(requestType string, data []byte) (*Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &TemplateError{RequestType: requestType, Reason: fmt.Sprintf("malformed YAML: %v", err)}
	}
	if file.SystemPrompt == "" {
		return nil, &TemplateError{RequestType: requestType, Reason: "missing system_prompt"}
	}
	if file.UserPrompt == "" {
		return nil, &TemplateError{RequestType: requestType, Reason: "missing user_prompt"}
	}
	if file.Schema != nil {
		if err := file.Schema.ValidateShape(); err != nil {
			return nil, &TemplateError{RequestType: requestType, Reason: fmt.Sprintf("embedded schema: %v", err)}
		}
	}
	return &Template{
		RequestType:       requestType,
		SystemPrompt:      file.SystemPrompt,
		UserPrompt:        file.UserPrompt,
		Schema:            file.Schema,
		ProviderOverrides: file.ProviderOverrides,
	}, nil
}

// Override returns a provider-specific formatting hint, or empty string when
// the template carries no override for that provider/key pair.
func (t *Template) Override(provider, key string) string {
	if t.ProviderOverrides == nil {
		return ""
	}
	return t.ProviderOverrides[provider][key]
}
