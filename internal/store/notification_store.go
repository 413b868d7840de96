package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proflow/proflow/internal/model"
)

// CreateNotification inserts a record of an outbound notification attempt.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, ticket_id, recipient, subject, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.TicketID, n.Recipient, n.Subject, boolToInt(n.Delivered),
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetNotificationsForTicket retrieves all notification attempts for a
// ticket, newest first.
func (s *SQLiteStore) GetNotificationsForTicket(
	ctx context.Context,
	ticketID string,
) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.SelectContext(ctx, &notifications,
		"SELECT * FROM notifications WHERE ticket_id = ? ORDER BY created_at DESC",
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications for ticket %s: %w", ticketID, err)
	}
	return notifications, nil
}
