package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Keys under which the session snapshot lives in durable storage.
const (
	KeyCredential = "auth_token"
	KeyPrincipal  = "user_data"
)

// ErrNotFound is returned by Storage.Get for a missing key.
var ErrNotFound = errors.New("session: key not found")

// Storage is the durable key-value store that survives restarts.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Flag is the short-lived credential marker read by the request inspector.
type Flag interface {
	Set(ctx context.Context, credential string, maxAge time.Duration) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps entries in process memory. Used by tests and the
// "memory" storage driver.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
