package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/simpleqa-bench/internal/config"
)

// Registry maps provider names to adapters.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

func (r *Registry) Register(a Adapter) {
	if r == nil || a == nil {
		return
	}
	name := strings.ToLower(strings.TrimSpace(a.Name()))
	if name == "" {
		return
	}
	if r.adapters == nil {
		r.adapters = make(map[string]Adapter)
	}
	if _, exists := r.adapters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	if r == nil || r.adapters == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns registered adapter names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NewRegistryFromConfig builds an adapter per configured provider.
// Providers register in sorted name order so sequential runs are
// deterministic.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("search: nil config")
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	r := NewRegistry()
	for _, name := range names {
		pcfg := cfg.Providers[name]
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "":
			continue
		case "tavily":
			r.Register(NewTavilyAdapter(pcfg.APIKey, pcfg.BaseURL, pcfg.Options))
		case "exa":
			r.Register(NewExaAdapter(pcfg.APIKey, pcfg.BaseURL, pcfg.Options))
		case "serper":
			r.Register(NewSerperAdapter(pcfg.APIKey, pcfg.BaseURL, pcfg.Options))
		case "brave":
			r.Register(NewBraveAdapter(pcfg.APIKey, pcfg.BaseURL, pcfg.Options))
		case "perplexity":
			r.Register(NewPerplexityAdapter(pcfg.APIKey, pcfg.BaseURL, pcfg.Model))
		default:
			return nil, fmt.Errorf("search: unknown provider %q", name)
		}
	}

	return r, nil
}
