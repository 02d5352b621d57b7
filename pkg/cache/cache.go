// Package cache stores built view models and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a local directory (CLI)
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching
//
// # Keys
//
// Keys are derived by a [Keyer] from content hashes. A view model is keyed by
// the hash of the canonical graph plus the build locale; an artifact by the
// hash of its view model plus the render options. Use [ScopedKeyer] to
// namespace keys per tenant or environment.
//
// # Retries
//
// [RetryWithBackoff] retries operations whose errors are wrapped with
// [Retryable]; the remote preparation client uses it for network failures.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	TTLView     = 7 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store. Implementations must be safe for
// concurrent use. A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
