package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/cache"
	"github.com/shop-agent/backend/internal/vector"
	"github.com/shop-agent/backend/pkg/logger"
)

// Embedder turns text into a vector in the store's embedding space.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds a query and searches the vector store. Retrieval is a
// soft dependency of chat: any failure returns an empty result set so the
// caller falls through to its ungrounded path instead of erroring.
type Retriever struct {
	store      vector.Store
	embedder   Embedder
	embedCache *cache.EmbeddingCache
	topK       int
}

func NewRetriever(store vector.Store, embedder Embedder, embedCache *cache.EmbeddingCache, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		embedCache: embedCache,
		topK:       topK,
	}
}

// Retrieve returns up to topK matches for the query, best first. The
// returned slice is empty, never nil-checked-for-error, when embedding or
// search fails.
func (r *Retriever) Retrieve(ctx context.Context, query string) []vector.Match {
	values, ok := r.cachedEmbedding(ctx, query)
	if !ok {
		embedded, err := r.embedder.GenerateEmbedding(ctx, query)
		if err != nil {
			logger.Warn("query embedding failed, returning no matches", zap.Error(err))
			return []vector.Match{}
		}
		values = embedded
		if r.embedCache != nil {
			r.embedCache.Set(ctx, query, values)
		}
	}

	matches, err := r.store.Query(ctx, values, r.topK)
	if err != nil {
		logger.Warn("vector search failed, returning no matches", zap.Error(err))
		return []vector.Match{}
	}
	return matches
}

func (r *Retriever) cachedEmbedding(ctx context.Context, query string) ([]float32, bool) {
	if r.embedCache == nil {
		return nil, false
	}
	return r.embedCache.Get(ctx, query)
}
