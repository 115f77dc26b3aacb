package ai

import (
	"sort"
	"sync"
)

// ProviderFactory creates provider instances
type ProviderFactory interface {
	// Create creates a new provider instance with the given config
	Create(config *ProviderConfig) (Provider, error)

	// Type returns the provider type this factory creates
	Type() string

	// ValidateConfig validates configuration for this provider type
	ValidateConfig(config *ProviderConfig) error

	// DefaultConfig returns a default configuration
	DefaultConfig() *ProviderConfig
}

// Registry holds provider factories and the instances created from them.
// Instances are created lazily on first Get and reused afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		providers: make(map[string]Provider),
	}
}

// Register adds a provider factory to the registry
func (r *Registry) Register(name string, factory ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return &ProviderError{
			Type:     ErrTypeRegistration,
			Message:  "provider already registered",
			Provider: name,
		}
	}

	r.factories[name] = factory
	return nil
}

// Get retrieves the provider by name, creating it with the factory's
// default configuration on first use
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	provider, exists := r.providers[name]
	r.mu.RUnlock()
	if exists {
		return provider, nil
	}

	return r.GetWithConfig(name, nil)
}

// GetWithConfig creates the provider by name with a specific configuration,
// replacing any previously created instance
func (r *Registry) GetWithConfig(name string, config *ProviderConfig) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, &ProviderError{
			Type:     ErrTypeNotFound,
			Message:  "provider not registered",
			Provider: name,
		}
	}

	if config == nil {
		config = factory.DefaultConfig()
	}
	if err := factory.ValidateConfig(config); err != nil {
		return nil, err
	}

	provider, err := factory.Create(config)
	if err != nil {
		return nil, err
	}

	r.providers[name] = provider
	return provider, nil
}

// List returns all registered provider names, sorted
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

// IsRegistered checks if a provider is registered
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Close shuts down every created provider instance
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, provider := range r.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.providers, name)
	}
	return firstErr
}

// The package level registry backs the Register calls made by the concrete
// providers so that the CLI can create any compiled-in provider by name.
var globalRegistry = NewRegistry()

// RegisterProvider adds a factory to the package level registry
func RegisterProvider(name string, factory ProviderFactory) error {
	return globalRegistry.Register(name, factory)
}

// GetProvider creates a provider from the package level registry using the
// factory's default configuration
func GetProvider(name string) (Provider, error) {
	return globalRegistry.Get(name)
}

// GetProviderWithConfig creates a provider from the package level registry
func GetProviderWithConfig(name string, config *ProviderConfig) (Provider, error) {
	return globalRegistry.GetWithConfig(name, config)
}

// ListProviders returns the names registered in the package level registry
func ListProviders() []string {
	return globalRegistry.List()
}

// IsProviderRegistered checks the package level registry
func IsProviderRegistered(name string) bool {
	return globalRegistry.IsRegistered(name)
}

// CloseProviders shuts down instances held by the package level registry
func CloseProviders() error {
	return globalRegistry.Close()
}
