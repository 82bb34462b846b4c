package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/vector"
	"github.com/shop-agent/backend/pkg/logger"
)

// Client backs the vector.Store contract with a Milvus/Zilliz collection.
// COSINE metric keeps scores comparable with the in-memory reference store.
type Client struct {
	client         client.Client
	collectionName string
	dim            int
}

func NewClient(endpoint, apiKey, collectionName string, dim int) (*Client, error) {
	var (
		c   client.Client
		err error
	)
	if apiKey != "" {
		c, err = client.NewClient(context.Background(), client.Config{Address: endpoint, APIKey: apiKey})
	} else {
		c, err = client.NewGrpcClient(context.Background(), endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		dim:            dim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Knowledge base chunk embeddings",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.dim),
				},
			},
			{
				Name:     "source",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "8192",
				},
			},
		},
	}

	err = m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index spec: %w", err)
	}
	err = m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = m.client.LoadCollection(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

// Upsert replaces existing chunk ids in place (last write wins).
func (m *Client) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	sources := make([]string, len(records))
	texts := make([]string, len(records))

	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Values
		sources[i] = r.Metadata.Source
		texts[i] = r.Metadata.Text
	}

	_, err := m.client.Upsert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("chunk_id", ids),
		entity.NewColumnFloatVector("embedding", m.dim, embeddings),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnVarChar("text", texts),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert records: %w", err)
	}

	err = m.client.Flush(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Records upserted into vector DB", zap.Int("count", len(records)))

	return nil
}

func (m *Client) Query(ctx context.Context, values []float32, topK int) ([]vector.Match, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		"",
		[]string{"chunk_id", "source", "text"},
		[]entity.Vector{entity.FloatVector(values)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]vector.Match, 0)
	for _, sr := range searchResult {
		idCol := sr.Fields.GetColumn("chunk_id")
		sourceCol := sr.Fields.GetColumn("source")
		textCol := sr.Fields.GetColumn("text")

		for i := 0; i < sr.ResultCount; i++ {
			id, _ := idCol.Get(i)
			source, _ := sourceCol.Get(i)
			text, _ := textCol.Get(i)

			matches = append(matches, vector.Match{
				ID:    id.(string),
				Score: float64(sr.Scores[i]),
				Metadata: vector.Metadata{
					Source: source.(string),
					Text:   text.(string),
				},
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(matches)),
	)

	return matches, nil
}

func (m *Client) DeleteBySource(ctx context.Context, sourceID string) error {
	expr := fmt.Sprintf(`source == "%s"`, escapeExpr(sourceID))

	err := m.client.Delete(ctx, m.collectionName, "", expr)
	if err != nil {
		return fmt.Errorf("failed to delete by source: %w", err)
	}

	logger.Info("Source deleted from vector DB", zap.String("source", sourceID))

	return nil
}

func escapeExpr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
