package objects

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"ecorpus-go/internal/vfs"
)

// MemoryStore keeps objects in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put reads r fully and stores it under its hash.
func (m *MemoryStore) Put(ctx context.Context, r io.Reader) (vfs.Object, error) {
	cr := newCtxReader(ctx, r)
	defer cr.Close()
	data, err := io.ReadAll(cr)
	if err != nil {
		return vfs.Object{}, fmt.Errorf("failed to read content: %w", err)
	}

	obj := vfs.Object{Hash: HashBytes(data), Size: int64(len(data))}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[obj.Hash]; !ok {
		m.objects[obj.Hash] = data
	}
	return obj, nil
}

// Open returns a reader over a copy-free view of the stored bytes.
func (m *MemoryStore) Open(_ context.Context, hash string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[hash]
	if !ok {
		return nil, vfs.ErrNotFound.New("object %s", hash)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Exists(_ context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[hash]
	return ok, nil
}

func (m *MemoryStore) Remove(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, hash)
	return nil
}

// List returns the stored hashes in lexical order.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashes := make([]string, 0, len(m.objects))
	for h := range m.objects {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes, nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup() error {
	return nil
}

var _ vfs.ObjectStore = (*MemoryStore)(nil)
