package artifact

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an ephemeral, thread-safe Store backed by sync.Map. It is
// created fresh per execution session: the key space is stable (artifact
// keys are known per run) while values update frequently from concurrent
// build goroutines, which is the access pattern sync.Map is built for.
type MemStore struct {
	values sync.Map // Key: artifact key string, Value: []byte
}

// NewMemStore creates a new, empty in-memory artifact store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Write stores a copy of value under key, replacing any previous value.
func (s *MemStore) Write(ctx context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	s.values.Store(key, buf)
	return nil
}

// Read returns a copy of the value under key, or ErrNotFound.
func (s *MemStore) Read(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.values.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	stored := v.([]byte)
	buf := make([]byte, len(stored))
	copy(buf, stored)
	return buf, nil
}

// Exists reports whether key has a stored value.
func (s *MemStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.values.Load(key)
	return ok, nil
}

// Delete removes key, or returns ErrNotFound if it was never written.
func (s *MemStore) Delete(ctx context.Context, key string) error {
	if _, ok := s.values.LoadAndDelete(key); !ok {
		return ErrNotFound
	}
	return nil
}

// List returns all stored keys in lexicographic order.
func (s *MemStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	s.values.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys, nil
}
