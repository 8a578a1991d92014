package artifact

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FSStore is a directory-backed Store. Each artifact is one file; keys are
// hex-encoded in the filename so arbitrary key strings (slashes, dots)
// cannot escape the store directory.
type FSStore struct {
	dir string
	mu  sync.Mutex
}

// NewFSStore creates the store directory if needed and returns the store.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact store: ensure dir %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

const fileSuffix = ".artifact"

func (s *FSStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+fileSuffix)
}

// Write stores value under key, replacing any previous value.
func (s *FSStore) Write(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write-then-rename so a concurrent Read never observes a torn file.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("artifact store: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("artifact store: commit %q: %w", key, err)
	}
	return nil
}

// Read returns the value under key, or ErrNotFound.
func (s *FSStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("artifact store: read %q: %w", key, err)
	}
	return data, nil
}

// Exists reports whether key has a stored value.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("artifact store: stat %q: %w", key, err)
	}
	return true, nil
}

// Delete removes key, or returns ErrNotFound if it was never written.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("artifact store: delete %q: %w", key, err)
	}
	return nil
}

// List returns all stored keys in lexicographic order.
func (s *FSStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("artifact store: list: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue // foreign file in the store dir
		}
		keys = append(keys, string(raw))
	}
	sort.Strings(keys)
	return keys, nil
}
