package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores files on the local filesystem under a base path.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

func (s *LocalStorage) path(name string) string {
	return filepath.Join(s.basePath, filepath.Clean("/"+name))
}

func (s *LocalStorage) Exists(name string) bool {
	info, err := os.Stat(s.path(name))
	return err == nil && !info.IsDir()
}

func (s *LocalStorage) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Save(name string, content io.Reader) (string, error) {
	stored := name
	if s.Exists(stored) {
		stored = availableName(name)
	}

	dst := s.path(stored)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return stored, nil
}

// availableName returns an alternative name for a file that already exists,
// keeping the extension so content-type sniffing by name still works.
func availableName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)
}
