package storage

import (
	"errors"
	"io"
	"sync"
)

var errNoDefault = errors.New("no default storage backend configured")

// DefaultStorage is a lazy proxy over the registry's default backend. The
// concrete backend is instantiated once, on the first operation; its identity
// is available to IdentifierFor without instantiation, straight from the
// registry's default entry.
type DefaultStorage struct {
	reg *Registry

	once     sync.Once
	concrete FileStorage
}

func NewDefaultStorage(reg *Registry) *DefaultStorage {
	return &DefaultStorage{reg: reg}
}

func (s *DefaultStorage) resolve() FileStorage {
	s.once.Do(func() {
		if b := s.reg.Default(); b != nil {
			s.concrete = b.New()
		}
	})
	return s.concrete
}

func (s *DefaultStorage) Exists(name string) bool {
	c := s.resolve()
	return c != nil && c.Exists(name)
}

func (s *DefaultStorage) Open(name string) (io.ReadCloser, error) {
	c := s.resolve()
	if c == nil {
		return nil, errNoDefault
	}
	return c.Open(name)
}

func (s *DefaultStorage) Save(name string, content io.Reader) (string, error) {
	c := s.resolve()
	if c == nil {
		return "", errNoDefault
	}
	return c.Save(name, content)
}
