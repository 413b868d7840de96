package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/proflow/proflow/internal/model"
)

// UpsertProject inserts or replaces a project.
func (s *SQLiteStore) UpsertProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description`,
		project.ID, project.Name, project.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting project %s: %w", project.ID, err)
	}
	return nil
}

// GetProjectByID retrieves a project by ID, or nil if none exists.
func (s *SQLiteStore) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := s.db.GetContext(ctx, &project, "SELECT * FROM projects WHERE id = ?", id)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	return &project, nil
}
