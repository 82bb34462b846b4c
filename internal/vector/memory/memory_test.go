package memory

import (
	"context"
	"math"
	"testing"

	"github.com/shop-agent/backend/internal/vector"
)

func record(id, source string, values ...float32) vector.Record {
	return vector.Record{
		ID:       id,
		Values:   values,
		Metadata: vector.Metadata{Source: source, Text: "text for " + id},
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	got := cosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected self-similarity ~1.0, got %f", got)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	got := cosineSimilarity(zero, []float32{1, 2, 3})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite score for zero vector, got %f", got)
	}
	if got != 0 {
		t.Errorf("expected 0 for zero vector, got %f", got)
	}
}

func TestUpsert_ReplacesExistingID(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Upsert(ctx, []vector.Record{record("faq-0", "faq", 1, 0)}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.Upsert(ctx, []vector.Record{record("faq-0", "faq", 0, 1)}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected 1 record after re-upsert, got %d", s.Len())
	}

	matches, err := s.Query(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if math.Abs(matches[0].Score-1.0) > 1e-6 {
		t.Errorf("expected replaced values to win, score %f", matches[0].Score)
	}
}

func TestQuery_TopKBound(t *testing.T) {
	s := New()
	ctx := context.Background()

	records := []vector.Record{
		record("a-0", "a", 1, 0, 0),
		record("a-1", "a", 0, 1, 0),
		record("a-2", "a", 0, 0, 1),
		record("b-0", "b", 1, 1, 0),
	}
	if err := s.Upsert(ctx, records); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("matches not sorted descending: %f < %f", matches[0].Score, matches[1].Score)
	}
	if matches[0].ID != "a-0" {
		t.Errorf("expected exact match first, got %s", matches[0].ID)
	}
}

func TestQuery_EmptyStore(t *testing.T) {
	s := New()
	matches, err := s.Query(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestDeleteBySource_RemovesOnlyThatSource(t *testing.T) {
	s := New()
	ctx := context.Background()

	records := []vector.Record{
		record("a-0", "a", 1, 0),
		record("a-1", "a", 0, 1),
		record("b-0", "b", 1, 1),
	}
	if err := s.Upsert(ctx, records); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := s.DeleteBySource(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	matches, err := s.Query(ctx, []float32{1, 1}, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected only source b to survive, got %d matches", len(matches))
	}
	if matches[0].ID != "b-0" {
		t.Errorf("expected b-0, got %s", matches[0].ID)
	}
}
