package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"konserve-go/internal/archive"
)

// MemoryStore is an in-memory implementation of the ArchiveStore interface.
// It keeps every archive in a map, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	name     string
	archives map[string][]byte
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with the given name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:     name,
		archives: make(map[string][]byte),
	}
}

// Put stores an archive under the given name.
func (m *MemoryStore) Put(_ context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.archives[name] = data
	return nil
}

// Get retrieves an archive by name.
func (m *MemoryStore) Get(_ context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.archives[name]
	if !ok {
		return fmt.Errorf("archive not found: %s", name)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	return nil
}

// List returns the names of all stored archives, sorted.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.archives))
	for name := range m.archives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(_ context.Context) error {
	return nil
}

// Compile-time check that MemoryStore implements the ArchiveStore interface
var _ archive.ArchiveStore = (*MemoryStore)(nil)
