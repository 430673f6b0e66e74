package analytics

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/threadchat/internal/db"
)

// Stats aggregates usage counters across the whole deployment.
type Stats struct {
	Users             int             `json:"users"`
	Threads           int             `json:"threads"`
	Messages          int             `json:"messages"`
	AssistantMessages int             `json:"assistant_messages"`
	FallbackReplies   int             `json:"fallback_replies"`
	FallbackRate      float64         `json:"fallback_rate"`
	MessagesPerDay    []DayCount      `json:"messages_per_day"`
	TopThreads        []ThreadSummary `json:"top_threads"`
}

// DayCount is one day's message volume.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ThreadSummary is a thread ranked by message volume.
type ThreadSummary struct {
	ThreadID string `json:"thread_id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
}

// Store computes usage statistics from the message history.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// recentDays bounds the per-day breakdown.
const recentDays = 30

// topThreadLimit bounds the busiest-threads list.
const topThreadLimit = 10

// Stats returns aggregate counters plus recent activity breakdowns.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads`).Scan(&stats.Threads)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.Messages)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(used_fallback), 0) FROM messages WHERE sender = 'assistant'`).
		Scan(&stats.AssistantMessages, &stats.FallbackReplies)
	if err != nil {
		return nil, err
	}
	if stats.AssistantMessages > 0 {
		stats.FallbackRate = float64(stats.FallbackReplies) / float64(stats.AssistantMessages)
	}

	stats.MessagesPerDay, err = s.messagesPerDay(ctx)
	if err != nil {
		return nil, err
	}
	stats.TopThreads, err = s.topThreads(ctx)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *Store) messagesPerDay(ctx context.Context) ([]DayCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at) AS day, COUNT(*)
		FROM messages
		WHERE created_at >= date('now', ?)
		GROUP BY day ORDER BY day`,
		fmt.Sprintf("-%d days", recentDays),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

func (s *Store) topThreads(ctx context.Context) ([]ThreadSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, COUNT(m.id) AS n
		FROM threads t JOIN messages m ON m.thread_id = t.id
		GROUP BY t.id, t.title
		ORDER BY n DESC, t.id
		LIMIT ?`, topThreadLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ThreadSummary
	for rows.Next() {
		var ts ThreadSummary
		if err := rows.Scan(&ts.ThreadID, &ts.Title, &ts.Messages); err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	return result, rows.Err()
}
