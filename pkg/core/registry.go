package core

import (
	"fmt"
	"sync"
)

// Global registry for backend self-registration
var globalRegistry = &Registry{
	prototypes: make(map[string]Backend),
	backends:   make(map[string]Backend),
}

type Registry struct {
	prototypes map[string]Backend
	backends   map[string]Backend
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		prototypes: make(map[string]Backend),
		backends:   make(map[string]Backend),
	}
}

// RegisterBackendPrototype allows backends to register themselves during init()
func RegisterBackendPrototype(name string, prototype Backend) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.prototypes[name] = prototype
}

// GetGlobalRegistry returns a registry pre-populated with all prototypes
// registered via init().
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for name, prototype := range globalRegistry.prototypes {
		registry.prototypes[name] = prototype
	}
	return registry
}

func (r *Registry) RegisterPrototype(name string, prototype Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prototypes[name]; exists {
		return fmt.Errorf("backend prototype %s already registered", name)
	}

	r.prototypes[name] = prototype
	return nil
}

func (r *Registry) CreateBackend(instanceName string, factoryType string, config interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prototype, exists := r.prototypes[factoryType]
	if !exists {
		return fmt.Errorf("backend prototype %s not found", factoryType)
	}

	if validator, ok := config.(interface{ Validate() error }); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("invalid config for backend %s: %w", instanceName, err)
		}
	}

	backend, err := prototype.Factory(instanceName, config)
	if err != nil {
		return fmt.Errorf("creating backend %s: %w", instanceName, err)
	}

	if existing, exists := r.backends[instanceName]; exists {
		if err := existing.Close(); err != nil {
			return fmt.Errorf("closing existing backend %s: %w", instanceName, err)
		}
	}

	r.backends[instanceName] = backend
	return nil
}

func (r *Registry) GetBackend(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("backend %s not found", name)
	}

	return backend, nil
}

func (r *Registry) GetAllBackends() map[string]Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Backend)
	for name, b := range r.backends {
		result[name] = b
	}
	return result
}

func (r *Registry) ListBackends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

func (r *Registry) RemoveBackend(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	backend, exists := r.backends[name]
	if !exists {
		return fmt.Errorf("backend %s not found", name)
	}

	if err := backend.Close(); err != nil {
		return fmt.Errorf("closing backend %s: %w", name, err)
	}

	delete(r.backends, name)
	return nil
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, backend := range r.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing backend %s: %w", name, err))
		}
	}

	r.backends = make(map[string]Backend)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing backends: %v", errs)
	}

	return nil
}
