// Package checkpoint provides durable per-thread snapshots of workflow
// state, enabling suspension and exact resumption across process restarts.
package checkpoint

import (
	"context"
	"errors"
)

// Store persists one checkpoint per thread id. Implementations must be safe
// for concurrent use and must make Save atomic per thread, so readers never
// observe a half-written snapshot.
type Store interface {
	// Save stores the checkpoint for a thread, replacing any previous one.
	Save(ctx context.Context, threadID string, data []byte) error

	// Load retrieves a thread's checkpoint.
	// Returns ErrNotFound if no checkpoint exists.
	Load(ctx context.Context, threadID string) ([]byte, error)

	// Delete removes a thread's checkpoint. Deleting a missing checkpoint
	// is not an error.
	Delete(ctx context.Context, threadID string) error

	// List returns the ids of all threads that have a checkpoint.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
