package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shop-agent/backend/pkg/utils"
)

// EmbeddingCache memoizes embedding vectors keyed by a digest of the input
// text, so repeated queries and re-ingested chunks skip the provider call.
type EmbeddingCache struct {
	cache Cache
	ttl   time.Duration
}

func NewEmbeddingCache(cache Cache, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{cache: cache, ttl: ttl}
}

func embeddingKey(text string) string {
	return "emb:" + utils.HashString(text)
}

func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool) {
	payload, ok := c.cache.Get(ctx, embeddingKey(text))
	if !ok {
		return nil, false
	}
	var values []float32
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, false
	}
	return values, true
}

func (c *EmbeddingCache) Set(ctx context.Context, text string, values []float32) {
	payload, err := json.Marshal(values)
	if err != nil {
		return
	}
	c.cache.Set(ctx, embeddingKey(text), payload, c.ttl)
}
