package mail

import "time"

// Placeholder values substituted when a message lacks the corresponding
// part. A missing from-address has no placeholder: the translator skips
// such messages, since a ticket requires a reporter contact.
const (
	DefaultSubject = "No Subject"
	DefaultBody    = "No content"
)

// Message is one parsed inbox message. It is produced by the IMAP client
// per fetch cycle, consumed by the ticket translator, and never persisted.
type Message struct {
	// UID is the message's IMAP UID within the selected mailbox.
	UID uint32

	// MessageID is the globally unique identifier assigned by the sending
	// mail system (RFC 5322 Message-ID), used as the stable dedup key.
	MessageID string

	// Subject is the subject line, or DefaultSubject when absent.
	Subject string

	// From is the sender's email address.
	From string

	// FromName is the sender's display name, possibly empty.
	FromName string

	// TextBody is the plain-text body (falling back to stripped HTML),
	// or DefaultBody when the message has neither.
	TextBody string

	// Date is the message's envelope date.
	Date time.Time
}
