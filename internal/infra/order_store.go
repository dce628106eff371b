package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// FileOrderStore implements domain.OrderStore as a pretty-printed JSON array
// of stable ids. Every save overwrites the whole file.
type FileOrderStore struct {
	path string
}

// NewFileOrderStore creates a store at the given path.
func NewFileOrderStore(path string) *FileOrderStore {
	return &FileOrderStore{path: path}
}

// Path returns the order file path.
func (s *FileOrderStore) Path() string {
	return s.path
}

// Load reads the saved order. Missing files, read errors and content that is
// not an array of strings all yield an empty order.
func (s *FileOrderStore) Load() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []string{}
	}

	var order []string
	if err := json.Unmarshal(data, &order); err != nil {
		return []string{}
	}
	if order == nil {
		return []string{}
	}
	return order
}

// Save writes the order, creating the parent directory first.
func (s *FileOrderStore) Save(order []string) error {
	if order == nil {
		order = []string{}
	}
	data, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: create directory: %v", domain.ErrPersistenceWrite, err)
	}

	// Write to temp file first (unique per process to avoid race)
	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
	}
	return nil
}

// Ensure FileOrderStore implements domain.OrderStore.
var _ domain.OrderStore = (*FileOrderStore)(nil)
