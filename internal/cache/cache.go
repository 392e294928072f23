// Package cache stores upstream response bodies for a bounded time.
package cache

import (
	"context"
	"time"
)

// Cache is the contract both the in-memory and the redis backend satisfy.
// A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Sweeper is implemented by backends that need periodic expiry.
type Sweeper interface {
	Sweep() int
}
