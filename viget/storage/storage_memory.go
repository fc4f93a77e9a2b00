package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opencontainers/go-digest"
)

// MemoryStorage is a simple in-memory Storage implementation for tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	files   map[string][]byte
	digests map[string]digest.Digest
}

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		files:   make(map[string][]byte),
		digests: make(map[string]digest.Digest),
	}
}

// ReadFile returns a copy of the stored file.
func (m *MemoryStorage) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("memory storage: file not found: %s", name)
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data under name.
func (m *MemoryStorage) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.AddFile(name, data)
	return nil
}

// AddFile stores data under name and returns its digest.
func (m *MemoryStorage) AddFile(name string, data []byte) digest.Digest {
	m.mu.Lock()
	defer m.mu.Unlock()

	dgst := digest.FromBytes(data)
	m.files[name] = append([]byte(nil), data...)
	m.digests[name] = dgst
	return dgst
}

// List returns descriptors for all stored files, sorted by name.
func (m *MemoryStorage) List() []FileDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	descs := make([]FileDescriptor, 0, len(m.files))
	for name, data := range m.files {
		descs = append(descs, FileDescriptor{
			Name:   name,
			Digest: m.digests[name],
			Size:   int64(len(data)),
		})
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs
}
