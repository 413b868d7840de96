package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/proflow/proflow/internal/model"
)

// CreateTicket persists a ticket draft. The draft's ID is the dedup key for
// email-derived tickets, so a duplicate ID is an error, never an overwrite.
func (s *SQLiteStore) CreateTicket(ctx context.Context, draft model.TicketDraft) (model.Ticket, error) {
	if strings.TrimSpace(draft.ID) == "" {
		return model.Ticket{}, fmt.Errorf("ticket id must not be empty")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return model.Ticket{}, fmt.Errorf("ticket title must not be empty")
	}

	now := time.Now().UTC()
	ticket := model.Ticket{
		ID:          draft.ID,
		Title:       draft.Title,
		Description: draft.Description,
		StatusID:    draft.StatusID,
		Priority:    draft.Priority,
		Category:    draft.Category,
		ProjectID:   draft.ProjectID,
		ReporterID:  draft.ReporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (
			id, title, description, status_id, priority, category,
			project_id, reporter_id, assignee_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID, ticket.Title, ticket.Description, ticket.StatusID,
		ticket.Priority, ticket.Category, ticket.ProjectID,
		ticket.ReporterID, ticket.AssigneeID, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("creating ticket %s: %w", ticket.ID, err)
	}

	return ticket, nil
}

// GetTicketByID retrieves a ticket by ID, or nil if none exists.
func (s *SQLiteStore) GetTicketByID(ctx context.Context, id string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := s.db.GetContext(ctx, &ticket, "SELECT * FROM tickets WHERE id = ?", id)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ticket %s: %w", id, err)
	}
	return &ticket, nil
}

// UpdateTicket updates an existing ticket's mutable fields.
func (s *SQLiteStore) UpdateTicket(ctx context.Context, ticket model.Ticket) error {
	ticket.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET
			title = ?, description = ?, status_id = ?, priority = ?,
			category = ?, project_id = ?, assignee_id = ?, updated_at = ?
		WHERE id = ?`,
		ticket.Title, ticket.Description, ticket.StatusID, ticket.Priority,
		ticket.Category, ticket.ProjectID, ticket.AssigneeID, ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return fmt.Errorf("updating ticket %s: %w", ticket.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("ticket %s not found", ticket.ID)
	}
	return nil
}
