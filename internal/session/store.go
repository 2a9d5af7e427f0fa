package session

import (
	"sync"

	"voltbridge/internal/core"
)

// Store persists one credential per vendor. The production implementation
// is backed by encrypted session cookies; MemoryStore backs tests and any
// caller that is not running inside an HTTP request.
//
// Stores perform no network I/O. Credentials are only written by successful
// code-exchange or refresh operations.
type Store interface {
	// Get returns the stored credential for a vendor, or false if absent
	Get(vendor string) (*core.Credential, bool)

	// Set stores a credential for a vendor, replacing any previous one
	Set(vendor string, cred *core.Credential) error

	// Clear removes all stored state for a vendor
	Clear(vendor string)
}

// MemoryStore is a map-backed Store
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]*core.Credential
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		creds: make(map[string]*core.Credential),
	}
}

// Get retrieves a credential by vendor
func (s *MemoryStore) Get(vendor string) (*core.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[vendor]
	if !ok {
		return nil, false
	}

	// Copy so callers cannot mutate stored state in place
	cp := *cred
	cp.DeviceIDs = append([]string(nil), cred.DeviceIDs...)
	return &cp, true
}

// Set stores a credential by vendor
func (s *MemoryStore) Set(vendor string, cred *core.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cred
	cp.DeviceIDs = append([]string(nil), cred.DeviceIDs...)
	s.creds[vendor] = &cp
	return nil
}

// Clear removes a vendor's credential
func (s *MemoryStore) Clear(vendor string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, vendor)
}

// Ensure implementations satisfy the interface
var _ Store = (*MemoryStore)(nil)
