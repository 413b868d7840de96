package model

import "time"

// EmailCredentials holds connection settings for one mail protocol endpoint
// (IMAP or SMTP). Port is kept as a string because it is only ever joined
// into a dial address.
type EmailCredentials struct {
	Host string `json:"host"`
	Port string `json:"port"`
	User string `json:"user"`
	Pass string `json:"pass"`
	TLS  bool   `json:"tls"`

	// InsecureTLS skips certificate verification. Defaults to true to
	// accommodate self-hosted mail servers with self-signed certificates.
	InsecureTLS bool `json:"insecure_tls"`
}

// Complete reports whether all fields required to attempt a connection are
// present. Incomplete credentials must fail fast without a network attempt.
func (c EmailCredentials) Complete() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Pass != ""
}

// EmailSettings is the per-user mailbox configuration: where to pull ticket
// mail from and where to push notifications through.
type EmailSettings struct {
	IMAP EmailCredentials `json:"imap"`
	SMTP EmailCredentials `json:"smtp"`
}

// SyncResult summarizes one email sync run. It is created fresh per
// invocation and returned to the caller; it is never persisted.
type SyncResult struct {
	// Tickets are the tickets created during this run, in message order.
	Tickets []Ticket `json:"tickets"`

	// NewUsers are reporter identities that did not exist before this run.
	NewUsers []User `json:"new_users"`

	// Count is len(Tickets).
	Count int `json:"count"`

	// Processed is the number of unread messages fetched from the mailbox,
	// eligible or not.
	Processed int `json:"processed"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
}
