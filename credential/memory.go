package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string, len(Keys))}
}

// NewMemoryStoreFromValues seeds a store with raw storage values, as if a
// previous process had written them. Values are copied.
func NewMemoryStoreFromValues(values map[string]string) *MemoryStore {
	s := NewMemoryStore()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *MemoryStore) Load(context.Context) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeValues(s.values), nil
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	values, err := encodeValues(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		if v == "" {
			delete(s.values, k)
			continue
		}
		s.values[k] = v
	}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range Keys {
		delete(s.values, k)
	}
	return nil
}

// Raw returns the stored value for key.
func (s *MemoryStore) Raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}
