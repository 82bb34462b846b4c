package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jdkato/prose/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one completed chat transaction.
type Record struct {
	SessionID      string    `json:"sessionId"`
	Timestamp      time.Time `json:"timestamp"`
	UserMessage    string    `json:"userMessage"`
	BotResponse    string    `json:"botResponse"`
	Sources        []string  `json:"sources"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	Success        bool      `json:"success"`
}

// Overview is the headline aggregate over all recorded chats.
type Overview struct {
	TotalChats        int     `json:"totalChats"`
	SuccessRate       float64 `json:"successRate"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	Sessions          int     `json:"sessions"`
}

// DailyStat is the chat volume for one calendar day.
type DailyStat struct {
	Date  string `json:"date"`
	Chats int    `json:"chats"`
}

// Topic is a recurring noun from user messages with its occurrence count.
type Topic struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	ts               INTEGER NOT NULL,
	user_message     TEXT NOT NULL,
	bot_response     TEXT NOT NULL,
	sources          TEXT NOT NULL DEFAULT '[]',
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	success          INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_chats_ts ON chats(ts);
CREATE INDEX IF NOT EXISTS idx_chats_session ON chats(session_id);
`

// Store persists chat transactions in a dedicated SQLite file, separate from
// the commerce database so analytics churn never contends with tool lookups.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init analytics schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, rec Record) error {
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		sources = []byte("[]")
	}

	success := 0
	if rec.Success {
		success = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (session_id, ts, user_message, bot_response, sources, response_time_ms, success)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Timestamp.UnixMilli(), rec.UserMessage, rec.BotResponse,
		string(sources), rec.ResponseTimeMs, success)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

func (s *Store) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	var successes int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(AVG(response_time_ms), 0),
		       COUNT(DISTINCT session_id)
		FROM chats`).Scan(&o.TotalChats, &successes, &o.AvgResponseTimeMs, &o.Sessions)
	if err != nil {
		return Overview{}, fmt.Errorf("overview query: %w", err)
	}
	if o.TotalChats > 0 {
		o.SuccessRate = float64(successes) / float64(o.TotalChats)
	}
	return o, nil
}

func (s *Store) DailyStats(ctx context.Context, days int) ([]DailyStat, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days).UnixMilli()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(ts / 1000, 'unixepoch') AS day, COUNT(*)
		FROM chats
		WHERE ts >= ?
		GROUP BY day
		ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("daily stats query: %w", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var st DailyStat
		if err := rows.Scan(&st.Date, &st.Chats); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// topicSample bounds how many recent messages TopTopics tokenizes per call.
const topicSample = 500

// TopTopics tokenizes recent user messages and counts recurring nouns, the
// cheap proxy for what customers keep asking about.
func (s *Store) TopTopics(ctx context.Context, limit int) ([]Topic, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_message FROM chats ORDER BY ts DESC LIMIT ?`, topicSample)
	if err != nil {
		return nil, fmt.Errorf("top topics query: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		for _, term := range nounTerms(message) {
			counts[term]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	topics := make([]Topic, 0, len(counts))
	for term, count := range counts {
		topics = append(topics, Topic{Term: term, Count: count})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Term < topics[j].Term
	})
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// nounTerms extracts lower-cased nouns of three or more characters.
func nounTerms(message string) []string {
	doc, err := prose.NewDocument(message)
	if err != nil {
		return nil
	}

	var terms []string
	for _, tok := range doc.Tokens() {
		if !strings.HasPrefix(tok.Tag, "NN") {
			continue
		}
		term := strings.ToLower(tok.Text)
		if len(term) < 3 {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
