package storage

import "io"

// FileStorage is the backend contract the sticky-upload core works against.
// Save may store under a different name than requested (to avoid clobbering
// an existing file) and returns the name actually used.
type FileStorage interface {
	Exists(name string) bool
	Open(name string) (io.ReadCloser, error)
	Save(name string, content io.Reader) (string, error)
}

// StoredFile is a restored upload: its base name plus a readable stream
// positioned at the start.
type StoredFile struct {
	Name string
	io.ReadCloser
}
