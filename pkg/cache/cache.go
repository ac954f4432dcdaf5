// Package cache stores registry lookup responses between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per key under the user cache directory
//   - [RedisCache]: a shared Redis instance, for teams or CI runners that
//     audit many trees against the same index
//   - [NullCache]: stores nothing; used with --no-cache
//
// Keys are built with [Key] and may be namespaced with [WithPrefix].
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a registry answer stays valid.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
