package provider

import (
	"fmt"

	"visibility-scan-service/models"
)

// Registry is the closed, enumerable set of adapters built once at
// startup. Fan-out order follows models.AllProviders, not registration
// order, so scan results stay deterministic.
type Registry struct {
	byID map[models.ProviderID]Adapter
}

// NewRegistry builds a registry from the given adapters. Every adapter
// must have a distinct, known provider ID.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{byID: make(map[models.ProviderID]Adapter, len(adapters))}
	for _, a := range adapters {
		id := a.ID()
		if !models.IsValidProvider(id) {
			return nil, fmt.Errorf("unknown provider id: %s", id)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate adapter for provider: %s", id)
		}
		r.byID[id] = a
	}
	return r, nil
}

// Get returns the adapter for id, or nil when none is registered.
func (r *Registry) Get(id models.ProviderID) Adapter {
	return r.byID[id]
}

// Ordered returns the registered adapters in canonical fan-out order.
func (r *Registry) Ordered() []Adapter {
	out := make([]Adapter, 0, len(r.byID))
	for _, id := range models.AllProviders() {
		if a, ok := r.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.byID)
}
