package uploads

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/threadchat/internal/db"
)

// Upload records one stored file's metadata. The bytes live on disk under
// the configured upload directory.
type Upload struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ThreadID    string    `json:"thread_id,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoredPath  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store provides upload metadata persistence.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts upload metadata. If u.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, u Upload) (*Upload, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, user_id, thread_id, filename, content_type, size_bytes, stored_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserID, u.ThreadID, u.Filename, u.ContentType, u.SizeBytes, u.StoredPath, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting upload: %w", err)
	}
	return &u, nil
}

// GetByID retrieves one upload, or nil if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Upload, error) {
	var u Upload
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, thread_id, filename, content_type, size_bytes, stored_path, created_at
		 FROM uploads WHERE id = ?`, id,
	).Scan(&u.ID, &u.UserID, &u.ThreadID, &u.Filename, &u.ContentType, &u.SizeBytes, &u.StoredPath, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting upload: %w", err)
	}
	return &u, nil
}

// ListByUser returns a user's uploads, newest first, optionally filtered
// by thread.
func (s *Store) ListByUser(ctx context.Context, userID, threadID string) ([]Upload, error) {
	query := `SELECT id, user_id, thread_id, filename, content_type, size_bytes, stored_path, created_at
	          FROM uploads WHERE user_id = ?`
	args := []any{userID}
	if threadID != "" {
		query += " AND thread_id = ?"
		args = append(args, threadID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var result []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.UserID, &u.ThreadID, &u.Filename, &u.ContentType, &u.SizeBytes, &u.StoredPath, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}
