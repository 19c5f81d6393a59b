package shared

import (
	"context"
	"time"
)

// IdempotencyStore hands out short-lived claims on a unit of work so that
// concurrent workers do not process the same key twice
type IdempotencyStore interface {
	// Claim marks a key as taken for ttl.
	// Returns true if the claim was newly acquired, false if someone else holds it
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim before its TTL expires
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
