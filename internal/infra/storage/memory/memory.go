package memory

import (
	"context"
	"sync"

	"github.com/vietddude/draftsync/internal/infra/storage"
)

// MemoryStorage keeps every namespace in process memory. Nothing survives a restart.
type MemoryStorage struct {
	data map[string]map[string][]byte
	mu   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string]map[string][]byte),
	}
}

// Namespace returns a Store bound to name.
func (m *MemoryStorage) Namespace(name string) storage.Store {
	return &Store{storage: m, namespace: name}
}

func (m *MemoryStorage) Close() error { return nil }

// -----------------------------------------------------------------------------
// Namespaced Store
// -----------------------------------------------------------------------------

type Store struct {
	storage   *MemoryStorage
	namespace string
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.storage.mu.RLock()
	defer s.storage.mu.RUnlock()
	v, ok := s.storage.data[s.namespace][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	ns, ok := s.storage.data[s.namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.storage.data[s.namespace] = ns
	}
	v := make([]byte, len(value))
	copy(v, value)
	ns[key] = v
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	delete(s.storage.data[s.namespace], key)
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	delete(s.storage.data, s.namespace)
	return nil
}
