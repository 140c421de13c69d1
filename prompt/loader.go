package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Loader resolves and caches prompt templates from a directory.
//
// For a given (requestType, provider) pair the candidate files are tried in
// order, first existing file wins:
//
//	<requestType>.<env>.<provider>.yml
//	<requestType>.<provider>.yml
//	<requestType>.<env>.yml
//	<requestType>.yml
//
// Parsed templates are cached keyed by (requestType, provider); a cache entry
// is invalidated when the resolved path or its modification time changes, so
// template edits take effect without a restart.
type Loader struct {
	dir    string
	env    string
	logger zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	template *Template
	path     string
	modTime  time.Time
}

// NewLoader creates a Loader over the given template directory.
// env is an optional environment name (e.g. "production") that participates in
// file resolution; empty disables environment-specific lookups.
func NewLoader(dir, env string, logger zerolog.Logger) *Loader {
	return &Loader{
		dir:    dir,
		env:    env,
		logger: logger.With().Str("component", "promptLoader").Logger(),
		cache:  make(map[string]*cacheEntry),
	}
}

// Get returns the template for a request type and provider, loading and
// caching it as needed. Returns *TemplateNotFoundError when nothing resolves
// and *TemplateError when the resolved file is malformed.
func (l *Loader) Get(requestType, provider string) (*Template, error) {
	path, err := l.resolve(requestType, provider)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &TemplateNotFoundError{RequestType: requestType, Provider: provider}
	}

	key := requestType + "/" + provider

	l.mu.RLock()
	entry, ok := l.cache[key]
	l.mu.RUnlock()
	if ok && entry.path == path && entry.modTime.Equal(info.ModTime()) {
		return entry.template, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	tmpl, err := parseTemplate(requestType, data)
	if err != nil {
		// Malformed templates are never cached; the next Get re-reads the file.
		return nil, err
	}

	l.mu.Lock()
	l.cache[key] = &cacheEntry{template: tmpl, path: path, modTime: info.ModTime()}
	l.mu.Unlock()

	l.logger.Debug().
		Str("request_type", requestType).
		Str("provider", provider).
		Str("path", path).
		Msg("Template loaded")
	return tmpl, nil
}

// Invalidate drops any cached entry for the request type and provider.
func (l *Loader) Invalidate(requestType, provider string) {
	l.mu.Lock()
	delete(l.cache, requestType+"/"+provider)
	l.mu.Unlock()
}

// resolve picks the first existing candidate file for the pair.
func (l *Loader) resolve(requestType, provider string) (string, error) {
	if strings.ContainsAny(requestType, "/\\") || strings.Contains(requestType, "..") {
		return "", &TemplateError{RequestType: requestType, Reason: "invalid characters in request type"}
	}

	var candidates []string
	if l.env != "" && provider != "" {
		candidates = append(candidates, fmt.Sprintf("%s.%s.%s.yml", requestType, l.env, provider))
	}
	if provider != "" {
		candidates = append(candidates, fmt.Sprintf("%s.%s.yml", requestType, provider))
	}
	if l.env != "" {
		candidates = append(candidates, fmt.Sprintf("%s.%s.yml", requestType, l.env))
	}
	candidates = append(candidates, requestType+".yml")

	for _, name := range candidates {
		path := filepath.Join(l.dir, name)
		if _, err := os.Stat(path); err == nil {
			// A provider was requested but only a non-provider candidate exists.
			if provider != "" && !strings.Contains(name, "."+provider+".") {
				l.logger.Info().
					Str("request_type", requestType).
					Str("provider", provider).
					Str("path", path).
					Msg("Provider-specific template missing, falling back to default")
			}
			return path, nil
		}
	}
	return "", &TemplateNotFoundError{RequestType: requestType, Provider: provider}
}
