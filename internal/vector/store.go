package vector

import "context"

// Metadata travels with every stored vector. Source identifies the document
// the chunk came from; Text is the chunk itself so retrieval can hand the
// orchestrator ready-to-use context.
type Metadata struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Record is one stored embedding. IDs follow the "<sourceID>-<chunkIndex>"
// convention set by the ingestor; upserting an existing ID replaces the
// record in place.
type Record struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

// Match is a ranked query result. Score is cosine similarity.
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Store is the contract every vector backend must satisfy. Query returns at
// most topK matches ordered by descending score. DeleteBySource removes every
// record whose metadata source equals sourceID and nothing else.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, values []float32, topK int) ([]Match, error)
	DeleteBySource(ctx context.Context, sourceID string) error
}
