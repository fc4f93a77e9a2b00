package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
)

// FileDescriptor describes a stored file.
type FileDescriptor struct {
	Name   string
	Digest digest.Digest
	Size   int64
}

// Storage abstracts whole-file reads of containers and writes of extracted payloads.
type Storage interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
}

// LocalStorage reads and writes files on the local filesystem. Relative names
// are resolved against Root when it is set.
type LocalStorage struct {
	Root string
}

// NewLocalStorage constructs a LocalStorage rooted at root ("" means the
// working directory).
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{Root: root}
}

func (s *LocalStorage) path(name string) string {
	if s.Root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Root, name)
}

// ReadFile reads the whole file into memory.
func (s *LocalStorage) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return data, nil
}

// WriteFile writes data to name, creating parent directories as needed.
func (s *LocalStorage) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("local storage: failed to create directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	return nil
}
