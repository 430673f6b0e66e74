package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/threadchat/internal/db"
)

// User is an account that owns threads and tokens.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Store provides user and API-token persistence.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateUser inserts a new user. Email is normalized to lowercase.
func (s *Store) CreateUser(ctx context.Context, email, name string, isAdmin bool) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	u := User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}

	admin := 0
	if isAdmin {
		admin = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, is_admin, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, admin, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves a user, or nil if not found.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email, or nil if not found.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	var admin int
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, is_admin, created_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &admin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.IsAdmin = admin != 0
	return &u, nil
}

// IssueToken creates a new API token for the user.
func (s *Store) IssueToken(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting token: %w", err)
	}
	return token, nil
}

// UserForToken resolves an API token to its user, updating last_used.
// Returns nil if the token is unknown.
func (s *Store) UserForToken(ctx context.Context, token string) (*User, error) {
	var u User
	var admin int
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.name, u.is_admin, u.created_at
		FROM api_tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token = ?`, token,
	).Scan(&u.ID, &u.Email, &u.Name, &admin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	u.IsAdmin = admin != 0

	if _, err := s.db.ExecContext(ctx,
		"UPDATE api_tokens SET last_used = ? WHERE token = ?", time.Now().UTC(), token,
	); err != nil {
		return nil, fmt.Errorf("updating token last_used: %w", err)
	}
	return &u, nil
}

// RevokeToken deletes an API token.
func (s *Store) RevokeToken(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM api_tokens WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("token not found")
	}
	return nil
}
