package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunk_EmptyInput(t *testing.T) {
	if got := Chunk("", 500, 50); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := Chunk("   \n\t  ", 500, 50); got != nil {
		t.Errorf("expected nil for whitespace-only text, got %v", got)
	}
}

func TestChunk_ShortTextIsSingleChunk(t *testing.T) {
	text := "how do I return an item"
	chunks := Chunk(text, 500, 50)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected %q, got %q", text, chunks[0])
	}
}

func TestChunk_WindowAndOverlap(t *testing.T) {
	chunks := Chunk(words(25), 10, 3)
	// Windows start at 0, 7, 14, 21.
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1], "w7 ") {
		t.Errorf("second chunk should start at w7, got %q", chunks[1])
	}
	if !strings.HasSuffix(chunks[0], " w9") {
		t.Errorf("first chunk should end at w9, got %q", chunks[0])
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(last, " w24") {
		t.Errorf("final partial chunk should end at w24, got %q", last)
	}
}

func TestChunk_ReconstructsTokenSequence(t *testing.T) {
	cases := []struct {
		size    int
		overlap int
		total   int
	}{
		{10, 3, 25},
		{500, 50, 1200},
		{5, 0, 17},
	}

	for _, tc := range cases {
		text := words(tc.total)
		chunks := Chunk(text, tc.size, tc.overlap)

		var rebuilt []string
		for i, c := range chunks {
			tokens := strings.Fields(c)
			if len(tokens) == 0 {
				t.Fatalf("size=%d overlap=%d: empty chunk at %d", tc.size, tc.overlap, i)
			}
			if i == 0 {
				rebuilt = append(rebuilt, tokens...)
				continue
			}
			// Every window after the first shares exactly overlap tokens
			// with its predecessor; the rest is new.
			rebuilt = append(rebuilt, tokens[min(tc.overlap, len(tokens)):]...)
		}

		if strings.Join(rebuilt, " ") != text {
			t.Errorf("size=%d overlap=%d: chunks do not reconstruct source", tc.size, tc.overlap)
		}
	}
}

func TestChunk_DegenerateOverlapTerminates(t *testing.T) {
	chunks := Chunk(words(12), 5, 5)
	if len(chunks) == 0 {
		t.Fatal("expected chunks for overlap == size")
	}
	chunks = Chunk(words(12), 5, 9)
	if len(chunks) == 0 {
		t.Fatal("expected chunks for overlap > size")
	}
	for _, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Error("produced an empty chunk")
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
