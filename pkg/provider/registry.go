package provider

import (
	"fmt"
	"sort"
)

// Registry maps provider identifiers to adapters. It is filled once at
// startup and only read afterwards, so lookups need no locking.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers. Duplicate
// names are rejected.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("provider registry: nil provider")
		}
		if _, exists := r.providers[p.Name()]; exists {
			return nil, fmt.Errorf("provider registry: duplicate provider %q", p.Name())
		}
		r.providers[p.Name()] = p
	}
	return r, nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered identifiers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
