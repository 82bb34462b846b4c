package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shop-agent/backend/internal/cache"
	"github.com/shop-agent/backend/internal/vector"
	"github.com/shop-agent/backend/internal/vector/memory"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	err := store.Upsert(context.Background(), []vector.Record{
		{ID: "faq-0", Values: []float32{1, 0, 0}, Metadata: vector.Metadata{Source: "faq", Text: "shipping takes 3 days"}},
		{ID: "faq-1", Values: []float32{0, 1, 0}, Metadata: vector.Metadata{Source: "faq", Text: "returns within 30 days"}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestRetrieve_ReturnsBestMatchFirst(t *testing.T) {
	store := seedStore(t)
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	r := NewRetriever(store, embedder, nil, 3)

	matches := r.Retrieve(context.Background(), "how long is shipping")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "faq-0" {
		t.Errorf("expected faq-0 first, got %s", matches[0].ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches not sorted by score")
	}
}

func TestRetrieve_EmbeddingFailureIsEmptyNotError(t *testing.T) {
	store := seedStore(t)
	embedder := &fakeEmbedder{err: errors.New("provider down")}
	r := NewRetriever(store, embedder, nil, 3)

	matches := r.Retrieve(context.Background(), "anything")
	if len(matches) != 0 {
		t.Errorf("expected no matches on embedding failure, got %d", len(matches))
	}
}

func TestRetrieve_UsesEmbeddingCacheOnRepeat(t *testing.T) {
	store := seedStore(t)
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	embedCache := cache.NewEmbeddingCache(cache.NewMemoryCache(), time.Minute)
	r := NewRetriever(store, embedder, embedCache, 3)

	ctx := context.Background()
	r.Retrieve(ctx, "how long is shipping")
	r.Retrieve(ctx, "how long is shipping")

	if embedder.calls != 1 {
		t.Errorf("expected 1 embedding call with a warm cache, got %d", embedder.calls)
	}
}

func TestRetrieve_HonorsTopK(t *testing.T) {
	store := seedStore(t)
	embedder := &fakeEmbedder{vec: []float32{1, 1, 0}}
	r := NewRetriever(store, embedder, nil, 1)

	matches := r.Retrieve(context.Background(), "anything")
	if len(matches) != 1 {
		t.Errorf("expected topK to cap matches at 1, got %d", len(matches))
	}
}
