package history

import (
	"context"
	"sync"
	"time"
)

// MemoryManager keeps transcripts in process memory. Each session is a
// fixed-capacity ring so append and eviction are a single operation under
// one lock; used standalone in tests and as the fallback when Redis is
// down or not configured.
type MemoryManager struct {
	mu       sync.Mutex
	limit    int
	sessions map[string]*ring
}

type ring struct {
	entries []Entry
	start   int
	count   int
}

func NewMemoryManager(limit int) *MemoryManager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryManager{
		limit:    limit,
		sessions: make(map[string]*ring),
	}
}

func (m *MemoryManager) Append(ctx context.Context, sessionID, role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[sessionID]
	if !ok {
		r = &ring{entries: make([]Entry, m.limit)}
		m.sessions[sessionID] = r
	}

	entry := Entry{Role: role, Content: content, TS: time.Now().UnixMilli()}

	pos := (r.start + r.count) % m.limit
	r.entries[pos] = entry
	if r.count < m.limit {
		r.count++
	} else {
		// Full: the slot we just wrote was the oldest.
		r.start = (r.start + 1) % m.limit
	}

	return nil
}

func (m *MemoryManager) History(ctx context.Context, sessionID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	out := make([]Entry, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[(r.start+i)%m.limit])
	}
	return out, nil
}
