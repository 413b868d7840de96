package store

import (
	"context"

	"github.com/proflow/proflow/internal/model"
)

// Store defines the persistence interface for users, projects, statuses,
// tickets, notifications, and per-user email settings.
//
// Lookup methods return (nil, nil) when no row matches, so callers can
// distinguish "absent" from a real query failure.
type Store interface {
	// === Users ===

	// CreateUser inserts a user, assigning a UUID when ID is empty. Email is
	// the natural key: if a user with the same email already exists, that
	// user is returned unchanged and no new row is created.
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// === Projects ===

	UpsertProject(ctx context.Context, project model.Project) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)

	// === Statuses ===

	UpsertStatus(ctx context.Context, status model.Status) error
	GetStatusByName(ctx context.Context, name string) (*model.Status, error)
	GetStatusByID(ctx context.Context, id string) (*model.Status, error)

	// === Tickets ===

	// CreateTicket persists a draft. The draft's ID must be set; a
	// duplicate ID fails rather than overwriting (ticket IDs derived from
	// mail message IDs are the dedup key).
	CreateTicket(ctx context.Context, draft model.TicketDraft) (model.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*model.Ticket, error)
	UpdateTicket(ctx context.Context, ticket model.Ticket) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotificationsForTicket(ctx context.Context, ticketID string) ([]model.Notification, error)

	// === Email settings ===

	// UpsertEmailSettings stores the non-secret connection settings for a
	// user. Passwords are handled by the settings service via the keyring.
	UpsertEmailSettings(ctx context.Context, userID string, s model.EmailSettings) error
	GetEmailSettings(ctx context.Context, userID string) (*model.EmailSettings, error)
}
