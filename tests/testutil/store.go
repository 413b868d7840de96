package testutil

import (
	"context"
	"testing"

	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewSeededStore creates an in-memory store with the default projects,
// statuses, and admin user already in place.
func NewSeededStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s := NewTestStore(t)
	if err := store.Seed(context.Background(), s); err != nil {
		t.Fatalf("seeding test store: %v", err)
	}
	return s
}

// CreateUser inserts a user, failing the test on error.
func CreateUser(t *testing.T, s store.Store, name, email string) model.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), model.User{
		Name:  name,
		Email: email,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return user
}
