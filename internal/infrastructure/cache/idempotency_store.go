package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers which submission keys have already been
// accepted, so a retried request does not post a voucher twice.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL. Returns true if
	// the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// IsProcessed checks if a key has already been processed.
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Close releases resources held by the store.
	Close() error
}
