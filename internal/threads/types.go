package threads

import "time"

// Message sender markers as persisted.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Thread is a conversation owned by one user.
type Thread struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one entry in a thread's append-only log.
type Message struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	UserID       string    `json:"user_id,omitempty"`
	Sender       string    `json:"sender"`
	Content      string    `json:"content"`
	UsedFallback bool      `json:"used_fallback,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
