// Package cache stores rendered documents keyed by everything that
// determines their bytes.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: entries as JSON files under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//
// Keys come from a [Keyer]. A key covers the normalized request, every
// template spec it touches, and the identity (name, size, mtime) of each font
// and base file used, so editing any input invalidates the entry.
package cache

import (
	"context"
	"time"
)

// ArtifactTTL is how long rendered documents are kept.
const ArtifactTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key; the bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
