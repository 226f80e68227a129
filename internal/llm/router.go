package llm

import (
	"sort"
	"sync"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/rs/zerolog/log"
)

// Router holds the registered model providers and picks the one turns run on
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	mu              sync.RWMutex
}

// NewRouter creates a new LLM router
func NewRouter(defaultProvider string) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// ListProviders returns list of configured provider names
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

// GetProvider returns a configured provider by name; an empty name means
// the default provider
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	switch {
	case !ok:
		return nil, &domain.ConfigurationError{Component: "llm", Message: "provider not registered: " + name}
	case !p.IsConfigured():
		return nil, &domain.ConfigurationError{Component: "llm", Message: "provider not configured: " + name}
	}
	return p, nil
}

// Resolve returns the default provider or, when that one is unavailable,
// the first configured provider in name order
func (r *Router) Resolve() (Provider, error) {
	p, err := r.GetProvider("")
	if err == nil {
		return p, nil
	}

	configured := r.ListProviders()
	if len(configured) == 0 {
		return nil, &domain.ConfigurationError{Component: "llm", Message: "no model provider configured"}
	}

	log.Warn().Err(err).Str("fallback", configured[0]).Msg("Default model provider unavailable")
	return r.GetProvider(configured[0])
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

// ProviderInfo contains information about an LLM provider
type ProviderInfo struct {
	Name       string   `json:"name"`
	Models     []string `json:"models"`
	Default    bool     `json:"default"`
	Configured bool     `json:"configured"`
}

// GetProvidersInfo returns information about all providers
func (r *Router) GetProvidersInfo() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for name, p := range r.providers {
		infos = append(infos, ProviderInfo{
			Name:       name,
			Models:     p.AvailableModels(),
			Default:    name == r.defaultProvider,
			Configured: p.IsConfigured(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
