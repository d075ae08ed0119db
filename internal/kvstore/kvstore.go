// Package kvstore defines the asynchronous key to JSON-blob capability that
// all persistence in this service goes through. The choice of backing medium
// is a deployment concern; business logic only ever sees this interface.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a flat key to value blob store with last-writer-wins semantics.
// Values are whole JSON documents; there are no partial updates.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value for key, replacing any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key; no-op if absent.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
