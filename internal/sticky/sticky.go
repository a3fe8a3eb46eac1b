// Package sticky makes an uploaded file reference survive a stateless
// multi-step form flow: the reference is folded into a signed token scoped to
// the endpoint URL that will consume it, and unfolded back on the next
// request. Deserialization deliberately collapses every failure — bad
// signature, wrong scope, rotated secret, unknown backend — into one uniform
// empty result, so a caller cannot tell which check rejected the token.
package sticky

import (
	"errors"
	"path/filepath"

	"sticky-uploads/internal/signing"
	"sticky-uploads/internal/storage"
)

// Result is a deserialized upload reference. The zero Result means the token
// was rejected.
type Result struct {
	Name    string
	Storage *storage.Backend
}

// Serialize signs a {name, storage identifier} mapping under scope, typically
// the URL of the endpoint that will later verify the token. A lazy default
// storage proxy is identified by its resolved concrete backend.
func Serialize(signer *signing.Signer, name string, st storage.FileStorage, scope string) (string, error) {
	if name == "" {
		return "", errors.New("empty file name")
	}
	identifier := storage.IdentifierFor(st)
	if identifier == "" {
		return "", errors.New("storage handle has no resolvable identity")
	}
	return signer.Sign(map[string]string{
		"name":    name,
		"storage": identifier,
	}, scope)
}

// Deserialize verifies token under scope and resolves the storage identifier
// through the registry. Any failure yields the zero Result.
func Deserialize(signer *signing.Signer, reg *storage.Registry, token, scope string) Result {
	payload, err := signer.Verify(token, scope)
	if err != nil {
		return Result{}
	}
	name, identifier := payload["name"], payload["storage"]
	if name == "" || identifier == "" {
		return Result{}
	}
	backend := reg.Lookup(identifier)
	if backend == nil {
		return Result{}
	}
	return Result{Name: name, Storage: backend}
}

// OpenStoredFile deserializes token under scope and opens the referenced file
// through a freshly constructed backend. Returns nil on any failure.
func OpenStoredFile(signer *signing.Signer, reg *storage.Registry, token, scope string) *storage.StoredFile {
	res := Deserialize(signer, reg, token, scope)
	if res.Storage == nil {
		return nil
	}
	st := instantiate(res.Storage)
	if st == nil || !st.Exists(res.Name) {
		return nil
	}
	f, err := st.Open(res.Name)
	if err != nil {
		return nil
	}
	return &storage.StoredFile{Name: filepath.Base(res.Name), ReadCloser: f}
}

// instantiate shields the caller from a panicking backend factory; a backend
// that cannot be constructed is treated the same as a missing file.
func instantiate(b *storage.Backend) (st storage.FileStorage) {
	defer func() {
		if recover() != nil {
			st = nil
		}
	}()
	return b.New()
}
