package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the token in a single 0600 file, e.g. ~/.roster/token.
type FileStore struct {
	path string
}

// NewFileStore stores the token in dir under the file name key.
func NewFileStore(dir, key string) *FileStore {
	return &FileStore{path: filepath.Join(dir, key)}
}

// Path returns the token file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load implements Store.
func (f *FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save implements Store.
func (f *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear implements Store. A missing file is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
