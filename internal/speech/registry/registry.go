// Package registry holds the named factories that create TTS engines.
// Backends register themselves at init() time; the service instantiates
// each configured engine once at startup.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opentts/wyoming-opentts/internal/speech/engine"
)

// Factory creates a TTS engine from a config map.
type Factory func(config map[string]string) (engine.TTSEngine, error)

// Registry holds named engine factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a named factory to the registry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates an engine using the named factory.
func (r *Registry) Create(name string, config map[string]string) (engine.TTSEngine, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown engine %q", name)
	}

	return factory(config)
}

// Has returns true if the named factory exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns all registered factory names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
