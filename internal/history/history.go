package history

import "context"

// Entry is one turn of a session transcript.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	TS      int64  `json:"ts"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultLimit bounds each session to its most recent turns, oldest dropped
// first.
const DefaultLimit = 10

// Manager keeps a bounded per-session transcript. Append must atomically
// push and trim so concurrent appends can never drop a just-written entry;
// History returns the surviving entries oldest-first.
type Manager interface {
	Append(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string) ([]Entry, error)
}
