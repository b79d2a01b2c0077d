package session

import (
	"context"
	"sync"
)

// Persisted credential fields.
const (
	KeyToken         = "token"
	KeyInstitutionID = "institutionId"
	KeyRole          = "role"
	KeyUserID        = "userId"
)

var Keys = []string{KeyToken, KeyInstitutionID, KeyRole, KeyUserID}

// Storage is durable per-browser key/value storage. A missing key reads as "".
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Rotator is implemented by storages keyed by an id the browser presents.
// Rotate moves the storage to a fresh id and drops whatever the old id held.
type Rotator interface {
	Rotate(ctx context.Context) error
}

// MemoryStorage keeps values in process memory. Used by tests and tools.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
