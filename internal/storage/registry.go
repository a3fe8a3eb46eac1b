package storage

import (
	"reflect"
	"sync"
)

// Factory constructs a backend with its process-wide defaults, the way a
// restored token instantiates it.
type Factory func() FileStorage

// Backend is a registry entry: a fully-qualified identifier naming the
// backend's concrete type, plus its factory.
type Backend struct {
	Identifier string
	New        Factory
}

// Registry maps backend identifiers to constructible backends. Tokens carry
// only the identifier; resolution is a lookup here and fails closed for
// anything that was never registered.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]*Backend
	def      *Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]*Backend)}
}

// Register adds a backend under the identifier of the factory's concrete
// type and returns the entry.
func (r *Registry) Register(f Factory) *Backend {
	b := &Backend{Identifier: identifierOf(f()), New: f}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Identifier] = b
	return b
}

// Lookup returns the backend registered under identifier, or nil.
func (r *Registry) Lookup(identifier string) *Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backends[identifier]
}

// SetDefault marks the backend that DefaultStorage resolves to.
func (r *Registry) SetDefault(b *Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = b
}

// Default returns the default backend, or nil if none was configured.
func (r *Registry) Default() *Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// IdentifierFor names the concrete type behind a storage handle. A lazy
// DefaultStorage proxy is forced to its registered concrete backend first:
// the identity captured in a token must survive independently of the proxy.
// Returns "" for a handle whose identity cannot be determined.
func IdentifierFor(s FileStorage) string {
	if p, ok := s.(*DefaultStorage); ok {
		if b := p.reg.Default(); b != nil {
			return b.Identifier
		}
		return ""
	}
	return identifierOf(s)
}

func identifierOf(s FileStorage) string {
	t := reflect.TypeOf(s)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return t.PkgPath() + "." + t.Name()
}
