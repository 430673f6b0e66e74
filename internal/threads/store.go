package threads

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/threadchat/internal/chat"
	"github.com/ziadkadry99/threadchat/internal/db"
)

// Store provides thread and message persistence. Messages form an
// append-only log per thread, read back in ascending creation-time order.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateThread inserts a new thread for the user.
func (s *Store) CreateThread(ctx context.Context, userID, title string) (*Thread, error) {
	now := time.Now().UTC()
	t := Thread{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting thread: %w", err)
	}
	return &t, nil
}

// GetThread retrieves a thread, or nil if not found.
func (s *Store) GetThread(ctx context.Context, id string) (*Thread, error) {
	var t Thread
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM threads WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting thread: %w", err)
	}
	return &t, nil
}

// ListThreads returns the user's threads, most recently active first.
func (s *Store) ListThreads(ctx context.Context, userID string) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM threads
		 WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var result []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// DeleteThread removes a thread and, via cascade, its messages.
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("thread %s not found", id)
	}
	return nil
}

// AppendMessage adds a message to a thread's log and bumps the thread's
// updated_at.
func (s *Store) AppendMessage(ctx context.Context, m Message) (*Message, error) {
	if m.ThreadID == "" {
		return nil, fmt.Errorf("thread_id is required")
	}
	if m.Sender != SenderUser && m.Sender != SenderAssistant {
		return nil, fmt.Errorf("invalid sender %q", m.Sender)
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	fallback := 0
	if m.UsedFallback {
		fallback = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, thread_id, user_id, sender, content, used_fallback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, m.UserID, m.Sender, m.Content, fallback, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE threads SET updated_at = ? WHERE id = ?", time.Now().UTC(), m.ThreadID,
	); err != nil {
		return nil, fmt.Errorf("touching thread: %w", err)
	}
	return &m, nil
}

// ListMessages returns a thread's messages in ascending creation order.
func (s *Store) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, user_id, sender, content, used_fallback, created_at
		 FROM messages WHERE thread_id = ? ORDER BY created_at ASC, id ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		var m Message
		var fallback int
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.UserID, &m.Sender, &m.Content, &fallback, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.UsedFallback = fallback != 0
		result = append(result, m)
	}
	return result, rows.Err()
}

// AllUserMessages returns every user-sent message across all threads in
// ascending creation order. Used for rebuilding the semantic index.
func (s *Store) AllUserMessages(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, user_id, sender, content, used_fallback, created_at
		 FROM messages WHERE sender = ? ORDER BY created_at ASC, id ASC`, SenderUser)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		var m Message
		var fallback int
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.UserID, &m.Sender, &m.Content, &fallback, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.UsedFallback = fallback != 0
		result = append(result, m)
	}
	return result, rows.Err()
}

// History returns a thread's messages as pipeline turns, oldest first.
func (s *Store) History(ctx context.Context, threadID string) ([]chat.Turn, error) {
	messages, err := s.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	turns := make([]chat.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, chat.Turn{
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return turns, nil
}
