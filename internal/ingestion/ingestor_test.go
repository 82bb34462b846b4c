package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shop-agent/backend/internal/cache"
	"github.com/shop-agent/backend/internal/vector/memory"
)

type fakeBatchEmbedder struct {
	err   error
	calls int
}

func (f *fakeBatchEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1, 0}
	}
	return out, nil
}

func TestIngest_WritesChunkRecords(t *testing.T) {
	store := memory.New()
	ing := NewIngestor(store, &fakeBatchEmbedder{}, nil, 10, 2)

	text := strings.Repeat("returns are accepted within thirty days ", 5)
	n, err := ing.Ingest(context.Background(), "faq-returns", text)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n < 2 {
		t.Fatalf("expected multiple chunks, got %d", n)
	}
	if store.Len() != n {
		t.Errorf("expected %d stored records, got %d", n, store.Len())
	}

	matches, err := store.Query(context.Background(), []float32{1, 1, 0}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if matches[0].Metadata.Source != "faq-returns" {
		t.Errorf("expected source metadata, got %q", matches[0].Metadata.Source)
	}
	if !strings.HasPrefix(matches[0].ID, "faq-returns-") {
		t.Errorf("expected derived chunk id, got %q", matches[0].ID)
	}
}

func TestIngest_ReingestReplacesInsteadOfAccumulating(t *testing.T) {
	store := memory.New()
	ing := NewIngestor(store, &fakeBatchEmbedder{}, nil, 10, 2)
	ctx := context.Background()

	long := strings.Repeat("word ", 40)
	if _, err := ing.Ingest(ctx, "doc", long); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	n, err := ing.Ingest(ctx, "doc", "short replacement text")
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if store.Len() != n {
		t.Errorf("expected re-ingest to replace records: %d stored, %d written", store.Len(), n)
	}
}

func TestIngest_EmptyTextErrors(t *testing.T) {
	ing := NewIngestor(memory.New(), &fakeBatchEmbedder{}, nil, 10, 2)
	if _, err := ing.Ingest(context.Background(), "doc", "   "); err == nil {
		t.Error("expected error on empty content")
	}
}

func TestIngest_EmbedderFailureWritesNothing(t *testing.T) {
	store := memory.New()
	ing := NewIngestor(store, &fakeBatchEmbedder{err: errors.New("quota")}, nil, 10, 2)

	if _, err := ing.Ingest(context.Background(), "doc", "some text here"); err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if store.Len() != 0 {
		t.Errorf("expected no records after failed ingest, got %d", store.Len())
	}
}

func TestIngestHTML_StripsMarkup(t *testing.T) {
	store := memory.New()
	ing := NewIngestor(store, &fakeBatchEmbedder{}, nil, 50, 5)

	html := `<html><head><style>body{}</style></head>
		<body><script>var x=1;</script><p>Shipping takes three days.</p></body></html>`
	n, err := ing.IngestHTML(context.Background(), "page", html)
	if err != nil {
		t.Fatalf("ingest html: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected a single chunk, got %d", n)
	}

	matches, _ := store.Query(context.Background(), []float32{1, 1, 0}, 1)
	text := matches[0].Metadata.Text
	if strings.Contains(text, "var x") || strings.Contains(text, "body{}") {
		t.Errorf("expected script and style content stripped, got %q", text)
	}
	if !strings.Contains(text, "Shipping takes three days.") {
		t.Errorf("expected body text kept, got %q", text)
	}
}

func TestRemove_DeletesSource(t *testing.T) {
	store := memory.New()
	ing := NewIngestor(store, &fakeBatchEmbedder{}, nil, 10, 2)
	ctx := context.Background()

	if _, err := ing.Ingest(ctx, "doc", "some text to remove later"); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := ing.Remove(ctx, "doc"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store after remove, got %d", store.Len())
	}
}

func TestIngest_WarmEmbeddingCacheSkipsProvider(t *testing.T) {
	store := memory.New()
	embedder := &fakeBatchEmbedder{}
	embedCache := cache.NewEmbeddingCache(cache.NewMemoryCache(), time.Minute)
	ing := NewIngestor(store, embedder, embedCache, 10, 2)
	ctx := context.Background()

	if _, err := ing.Ingest(ctx, "doc", "cacheable text"); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := ing.Ingest(ctx, "doc", "cacheable text"); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("expected warm cache to skip the second batch call, got %d calls", embedder.calls)
	}
}
