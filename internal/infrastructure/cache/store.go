package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indicates the key is absent or its entry has expired.
var ErrMiss = errors.New("cache miss")

// Store is a TTL key-value cache for memoizing expensive lookups. The
// address service uses it to keep registry answers warm; expiry is
// enforced by the store, callers only pick the TTL.
type Store interface {
	// Get returns the stored value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. A zero ttl stores forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases store resources. Safe to call multiple times.
	Close() error
}
