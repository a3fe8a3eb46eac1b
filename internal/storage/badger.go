package storage

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStorage keeps uploads as values in a Badger key/value store. Badger
// holds an exclusive lock on its directory, so the open database is shared
// by every instance on the same path: it opens on first use and stays open
// until Close. Tokens resolve to a fresh instance per request, and all of
// them reach the one database.
type BadgerStorage struct {
	path string
}

var (
	badgerMu  sync.Mutex
	badgerDBs = map[string]*badger.DB{}
)

func NewBadgerStorage(path string) *BadgerStorage {
	return &BadgerStorage{path: path}
}

func (s *BadgerStorage) open() (*badger.DB, error) {
	badgerMu.Lock()
	defer badgerMu.Unlock()
	if db, ok := badgerDBs[s.path]; ok {
		return db, nil
	}
	opts := badger.DefaultOptions(s.path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	badgerDBs[s.path] = db
	return db, nil
}

func (s *BadgerStorage) Exists(name string) bool {
	db, err := s.open()
	if err != nil {
		return false
	}
	err = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(name))
		return err
	})
	return err == nil
}

func (s *BadgerStorage) Open(name string) (io.ReadCloser, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	var data []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *BadgerStorage) Save(name string, content io.Reader) (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	stored := name
	if s.Exists(stored) {
		stored = availableName(name)
	}
	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stored), data)
	}); err != nil {
		return "", fmt.Errorf("set %q: %w", stored, err)
	}
	return stored, nil
}

// Close releases the database for this path, if it was ever opened. Later
// operations on the path reopen it.
func (s *BadgerStorage) Close() error {
	badgerMu.Lock()
	defer badgerMu.Unlock()
	db, ok := badgerDBs[s.path]
	if !ok {
		return nil
	}
	delete(badgerDBs, s.path)
	return db.Close()
}
