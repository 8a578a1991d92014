// Package artifact defines the persistence collaborator for run artifacts
// and provides two implementations: an ephemeral in-memory store for local
// sessions and tests, and a directory-backed store for real runs.
package artifact

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read and Delete for a key that was never
// written (or was already deleted).
var ErrNotFound = errors.New("artifact not found")

// Store persists opaque artifact values by key. Implementations must be
// safe for concurrent use; the scheduler and driver both write from
// goroutines.
type Store interface {
	Write(ctx context.Context, key string, value []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List returns all stored keys in lexicographic order.
	List(ctx context.Context) ([]string, error)
}
