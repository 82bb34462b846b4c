package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/shop-agent/backend/internal/vector"
)

// cosineEpsilon keeps the denominator non-zero for degenerate vectors.
const cosineEpsilon = 1e-8

// Store is the reference exact-search implementation of vector.Store: a
// linear scan with cosine similarity. Constructed once at startup and shared
// behind the interface; fine for FAQ-sized corpora, not a production index.
type Store struct {
	mu      sync.RWMutex
	records map[string]vector.Record
}

func New() *Store {
	return &Store{
		records: make(map[string]vector.Record),
	}
}

func (s *Store) Upsert(ctx context.Context, records []vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *Store) Query(ctx context.Context, values []float32, topK int) ([]vector.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]vector.Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, vector.Match{
			ID:       r.ID,
			Score:    cosineSimilarity(values, r.Values),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

func (s *Store) DeleteBySource(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.records {
		if r.Metadata.Source == sourceID {
			delete(s.records, id)
		}
	}
	return nil
}

// Len reports the number of stored records. Used by tests and the health
// endpoint.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon)
}
