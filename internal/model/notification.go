package model

import "time"

// Notification records an outbound email notification attempt for a ticket,
// delivered or not. Failed sends are kept so an admin can see what was
// dropped; the triggering ticket mutation is never rolled back.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// TicketID links this notification to the ticket it concerns.
	TicketID string `json:"ticket_id" db:"ticket_id"`

	// Recipient is the email address the notification was sent to.
	Recipient string `json:"recipient" db:"recipient"`

	// Subject is the subject line of the sent email.
	Subject string `json:"subject" db:"subject"`

	// Delivered indicates whether the SMTP send succeeded.
	Delivered bool `json:"delivered" db:"delivered"`

	// CreatedAt is when the send was attempted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
