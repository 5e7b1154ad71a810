// Package cache stores expensive pipeline artifacts: directory snapshots,
// computed layouts, and rendered exports. Backends share one byte-oriented
// interface so the pipeline does not care whether it talks to local disk,
// Redis, or nothing at all.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry TTLs. A zero TTL means no
// expiration. Get reports a miss with hit=false rather than an error so
// callers can fall through to recomputation without error inspection.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
