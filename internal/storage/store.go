// Package storage persists generated artifacts and hands out expiring signed
// URLs for them. Two backends exist: S3-compatible object storage for
// production and a local filesystem store for development and tests.
package storage

import (
	"context"
	"time"
)

// SignedURLTTL is the default lifetime of a signed artifact URL.
const SignedURLTTL = 24 * time.Hour

// ObjectStore is the storage surface the pipelines depend on.
type ObjectStore interface {
	// Upload persists data under key and returns the canonical storage key.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// SignedURL returns a time-limited URL for the stored object.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectReader reads stored artifacts back, used by bulk downloads. Both
// built-in stores implement it.
type ObjectReader interface {
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
}
