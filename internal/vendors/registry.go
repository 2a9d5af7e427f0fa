package vendors

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrVendorNotFound      = errors.New("vendor not found")
	ErrVendorAlreadyExists = errors.New("vendor already registered")
)

// Registry manages all registered vendor clients
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates a new vendor registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
	}
}

// Register adds a client to the registry
func (r *Registry) Register(client Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := client.Name()
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("%w: %s", ErrVendorAlreadyExists, name)
	}

	r.clients[name] = client
	return nil
}

// Get retrieves a client by vendor name
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrVendorNotFound, name)
	}

	return client, nil
}

// List returns all registered vendor names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}
