package model

import "time"

// Ticket priority tiers.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// CategoryFromEmail tags tickets that were created by the mail sync
// pipeline, so they can be filtered from manually created ones.
const CategoryFromEmail = "From Email"

// Ticket is a persisted work item.
type Ticket struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	StatusID    string    `json:"status_id" db:"status_id"`
	Priority    string    `json:"priority" db:"priority"`
	Category    string    `json:"category" db:"category"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	ReporterID  string    `json:"reporter_id" db:"reporter_id"`
	AssigneeID  string    `json:"assignee_id" db:"assignee_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TicketDraft is an in-memory ticket creation request. It is produced by the
// email translator (with a deterministic ID derived from the source message)
// and discarded after the store accepts it.
type TicketDraft struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StatusID    string `json:"status_id"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	ProjectID   string `json:"project_id"`
	ReporterID  string `json:"reporter_id"`
}
