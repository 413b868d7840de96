package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/proflow/proflow/internal/model"
)

// UpsertStatus inserts or updates a workflow status. Name is unique across
// statuses since tickets reference their workflow state by name in the UI.
func (s *SQLiteStore) UpsertStatus(ctx context.Context, status model.Status) error {
	if strings.TrimSpace(status.Name) == "" {
		return fmt.Errorf("status name must not be empty")
	}
	if status.ID == "" {
		status.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statuses (id, name, color)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET color = excluded.color`,
		status.ID, status.Name, status.Color,
	)
	if err != nil {
		return fmt.Errorf("upserting status %q: %w", status.Name, err)
	}
	return nil
}

// GetStatusByName retrieves a status by its exact name, or nil if none
// exists. Matching is case-sensitive.
func (s *SQLiteStore) GetStatusByName(ctx context.Context, name string) (*model.Status, error) {
	var status model.Status
	err := s.db.GetContext(ctx, &status, "SELECT * FROM statuses WHERE name = ?", name)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting status %q: %w", name, err)
	}
	return &status, nil
}

// GetStatusByID retrieves a status by ID, or nil if none exists.
func (s *SQLiteStore) GetStatusByID(ctx context.Context, id string) (*model.Status, error) {
	var status model.Status
	err := s.db.GetContext(ctx, &status, "SELECT * FROM statuses WHERE id = ?", id)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting status %s: %w", id, err)
	}
	return &status, nil
}
