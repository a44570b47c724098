package provider

import (
	"sync"
)

// Registry holds the cancellation connectors keyed by provider slug and
// method. It is the injected capability registry: wiring decides which
// providers get real integrations, tests substitute fakes, and an empty
// registry simply routes everything to manual.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]map[string]Connector
}

func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[string]map[string]Connector),
	}
}

// Register binds a connector to a provider slug. Re-registering the same
// slug and method replaces the previous connector.
func (r *Registry) Register(slug string, connector Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byMethod, ok := r.connectors[slug]
	if !ok {
		byMethod = make(map[string]Connector)
		r.connectors[slug] = byMethod
	}
	byMethod[connector.Method()] = connector
}

// Lookup returns the connector for a provider and method, if one is wired.
func (r *Registry) Lookup(slug, method string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byMethod, ok := r.connectors[slug]
	if !ok {
		return nil, false
	}
	c, ok := byMethod[method]
	return c, ok
}

// Has reports whether any connector is registered for the provider slug.
func (r *Registry) Has(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connectors[slug]
	return ok
}
