package cache

import (
	"context"
	"time"
)

// Cache is a byte-value cache with per-entry TTL. Implementations are
// best-effort: a miss and a backend failure look the same to callers, so
// cached paths degrade to recomputation instead of erroring.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
