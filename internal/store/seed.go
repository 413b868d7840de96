package store

import (
	"context"
	"fmt"

	"github.com/proflow/proflow/internal/model"
)

// Seed creates the default projects, workflow statuses, and admin account.
// All writes are upserts keyed by stable IDs, so seeding is idempotent and
// safe to run on every startup.
func Seed(ctx context.Context, s Store) error {
	projects := []model.Project{
		{
			ID:          "PROJ-1",
			Name:        "ProFlow App",
			Description: "The main application development project.",
		},
		{
			ID:          "PROJ-2",
			Name:        "Website Redesign",
			Description: "Marketing site refresh.",
		},
	}
	for _, p := range projects {
		if err := s.UpsertProject(ctx, p); err != nil {
			return fmt.Errorf("seeding project %s: %w", p.ID, err)
		}
	}

	statuses := []model.Status{
		{ID: "status-todo", Name: model.StatusNameToDo, Color: "#3b82f6"},
		{ID: "status-in-progress", Name: model.StatusNameInProgress, Color: "#eab308"},
		{ID: "status-done", Name: model.StatusNameDone, Color: "#22c55e"},
	}
	for _, st := range statuses {
		if err := s.UpsertStatus(ctx, st); err != nil {
			return fmt.Errorf("seeding status %q: %w", st.Name, err)
		}
	}

	// CreateUser is idempotent on email, so re-seeding reuses the row.
	admin := model.User{
		ID:        "USER-1",
		Name:      "Admin",
		Email:     "admin@proflow.local",
		AvatarURL: "https://placehold.co/32x32/E9D5FF/6D28D9/png?text=A",
	}
	if _, err := s.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}

	return nil
}
