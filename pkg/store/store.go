// Package store provides the persistent key-value store the cache policy
// sits on: plain get/set/delete semantics, no query capability, no
// transactional guarantees.
package store

import "context"

// Store is a key-value blob store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value wholesale.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
