package blob

import (
	"context"
	"sync"

	"flowconnect-backend/internal/pkg/apperr"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

func (m *MemoryStore) FullKey(key string) string {
	return key
}

func (m *MemoryStore) Upload(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return nil
}

func (m *MemoryStore) GeneratePresignedURL(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[key]; !ok {
		return "", apperr.NotFound("BlobNotFound", "no object at key %s", key)
	}
	return "https://blobs.local/" + key + "?signed=1", nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}
