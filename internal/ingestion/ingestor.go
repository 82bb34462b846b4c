package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/cache"
	"github.com/shop-agent/backend/internal/chunker"
	"github.com/shop-agent/backend/internal/vector"
	"github.com/shop-agent/backend/pkg/logger"
)

// BatchEmbedder embeds a batch of texts, one vector per input, in order.
type BatchEmbedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Ingestor turns a document into chunked, embedded records in the vector
// store. Chunk IDs are derived from the source ID so re-ingesting a source
// replaces its records instead of accumulating stale ones.
type Ingestor struct {
	store      vector.Store
	embedder   BatchEmbedder
	embedCache *cache.EmbeddingCache
	chunkSize  int
	overlap    int
}

func NewIngestor(store vector.Store, embedder BatchEmbedder, embedCache *cache.EmbeddingCache, chunkSize, overlap int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if overlap < 0 {
		overlap = chunker.DefaultOverlap
	}
	return &Ingestor{
		store:      store,
		embedder:   embedder,
		embedCache: embedCache,
		chunkSize:  chunkSize,
		overlap:    overlap,
	}
}

// Ingest chunks and embeds the text and upserts it under the source ID,
// replacing anything previously stored for that source. Returns the number
// of chunks written.
func (ing *Ingestor) Ingest(ctx context.Context, sourceID, text string) (int, error) {
	chunks := chunker.Chunk(text, ing.chunkSize, ing.overlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no content to ingest for source %q", sourceID)
	}

	vectors, err := ing.embedChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed source %q: %w", sourceID, err)
	}

	// Delete first so a shorter re-ingest leaves no orphaned chunks.
	if err := ing.store.DeleteBySource(ctx, sourceID); err != nil {
		return 0, fmt.Errorf("clear source %q: %w", sourceID, err)
	}

	records := make([]vector.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vector.Record{
			ID:     fmt.Sprintf("%s-%d", sourceID, i),
			Values: vectors[i],
			Metadata: vector.Metadata{
				Source: sourceID,
				Text:   chunk,
			},
		}
	}

	if err := ing.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert source %q: %w", sourceID, err)
	}

	logger.Info("ingested document",
		zap.String("source_id", sourceID),
		zap.Int("chunks", len(records)))
	return len(records), nil
}

// IngestHTML strips markup and boilerplate tags before ingesting the
// remaining text.
func (ing *Ingestor) IngestHTML(ctx context.Context, sourceID, html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse html for source %q: %w", sourceID, err)
	}

	doc.Find("script, style, nav, footer, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")

	return ing.Ingest(ctx, sourceID, text)
}

// Remove drops every record stored under the source ID.
func (ing *Ingestor) Remove(ctx context.Context, sourceID string) error {
	return ing.store.DeleteBySource(ctx, sourceID)
}

// embedChunks resolves each chunk through the embedding cache and batches
// the misses through the provider. A provider failure fails the whole
// ingest; partial writes would leave the source half-indexed.
func (ing *Ingestor) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	missIdx := make([]int, 0, len(chunks))
	missTexts := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		if ing.embedCache != nil {
			if values, ok := ing.embedCache.Get(ctx, chunk); ok {
				vectors[i] = values
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, chunk)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	embedded, err := ing.embedder.GenerateBatchEmbeddings(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(missTexts), len(embedded))
	}

	for j, i := range missIdx {
		vectors[i] = embedded[j]
		if ing.embedCache != nil {
			ing.embedCache.Set(ctx, chunks[i], embedded[j])
		}
	}
	return vectors, nil
}
