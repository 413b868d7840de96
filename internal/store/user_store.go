package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proflow/proflow/internal/model"
)

// CreateUser inserts a user keyed by email. The insert is a no-op when a
// user with that email already exists; either way the stored row is
// returned, which makes user creation idempotent on email.
func (s *SQLiteStore) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	email := strings.TrimSpace(user.Email)
	if email == "" {
		return model.User{}, fmt.Errorf("user email must not be empty")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar_url, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		user.ID, user.Name, email, user.AvatarURL, user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user %s: %w", email, err)
	}

	stored, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if stored == nil {
		return model.User{}, fmt.Errorf("user %s not found after insert", email)
	}

	return *stored, nil
}

// GetUserByID retrieves a user by ID, or nil if none exists.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", id)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, or nil if none exists.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = ?", email)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email %s: %w", email, err)
	}
	return &user, nil
}
