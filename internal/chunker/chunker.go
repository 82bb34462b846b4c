package chunker

import "strings"

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Chunk splits text into overlapping windows of size words, advancing the
// window start by size-overlap words each step. The final partial window is
// kept when non-empty. The advance is clamped to at least one word so
// degenerate parameters (overlap >= size) cannot loop forever.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}

		chunk := strings.Join(words[start:end], " ")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(words) {
			break
		}
	}

	return chunks
}
