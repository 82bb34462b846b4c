package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/pkg/logger"
)

// RedisManager persists transcripts as Redis lists under
// chat:<sessionID>:history. Push and trim run in a single transaction so
// the list never exceeds the limit and a concurrent append can never be
// trimmed away before it is counted. Failures degrade to the in-process
// fallback so chat keeps working through a Redis outage.
type RedisManager struct {
	client   *redis.Client
	limit    int
	fallback *MemoryManager
}

func NewRedisManager(client *redis.Client, limit int) *RedisManager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisManager{
		client:   client,
		limit:    limit,
		fallback: NewMemoryManager(limit),
	}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("chat:%s:history", sessionID)
}

func (m *RedisManager) Append(ctx context.Context, sessionID, role, content string) error {
	entry := Entry{Role: role, Content: content, TS: time.Now().UnixMilli()}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.RPush(ctx, historyKey(sessionID), payload)
	pipe.LTrim(ctx, historyKey(sessionID), int64(-m.limit), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("history append falling back to memory",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return m.fallback.Append(ctx, sessionID, role, content)
	}
	return nil
}

func (m *RedisManager) History(ctx context.Context, sessionID string) ([]Entry, error) {
	raw, err := m.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		logger.Warn("history read falling back to memory",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return m.fallback.History(ctx, sessionID)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip corrupt entries rather than fail the whole read.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
