// Package notify sends resolution emails to ticket reporters and records
// every attempt, delivered or not.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/proflow/proflow/internal/audit"
	"github.com/proflow/proflow/internal/mail"
	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/settings"
	"github.com/proflow/proflow/internal/store"
)

// Sender transmits one composed email. *mail.Sender implements it; tests
// substitute fakes.
type Sender interface {
	Send(to, subject, textBody, htmlBody string) error
}

// SendFailedError wraps an SMTP failure. The ticket mutation that triggered
// the notification has already been committed; callers surface this as a
// warning, never as a rollback.
type SendFailedError struct {
	Recipient string
	Err       error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("sending notification to %s: %v", e.Recipient, e.Err)
}

func (e *SendFailedError) Unwrap() error { return e.Err }

// Notifier sends ticket-resolution emails using the acting user's SMTP
// settings.
type Notifier struct {
	store    store.Store
	settings *settings.Service
	audit    *audit.Log
	logger   *slog.Logger

	// SenderFactory builds the SMTP sender for a dispatch. The default uses
	// the resolved credentials; tests replace it.
	SenderFactory func(creds model.EmailCredentials) Sender
}

// NewNotifier wires a notifier.
func NewNotifier(s store.Store, settingsSvc *settings.Service, auditLog *audit.Log, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:    s,
		settings: settingsSvc,
		audit:    auditLog,
		logger:   logger,
		SenderFactory: func(creds model.EmailCredentials) Sender {
			return mail.NewSender(creds)
		},
	}
}

// NotifyResolved emails the ticket's reporter that their ticket is done.
//
// Missing prerequisites are a silent skip with a nil return: no SMTP
// settings for the actor, or no reporter email on file. An actual SMTP
// failure is recorded as an undelivered notification and returned as a
// *SendFailedError.
func (n *Notifier) NotifyResolved(ctx context.Context, actorID string, ticket model.Ticket) error {
	creds, err := n.smtpCredentials(ctx, actorID)
	if err != nil {
		return err
	}
	if creds == nil {
		n.logger.Info("no smtp settings configured, skipping notification",
			"ticket_id", ticket.ID, "actor", actorID)
		return nil
	}

	recipient, err := n.reporterEmail(ctx, ticket)
	if err != nil {
		return err
	}
	if recipient == "" {
		n.logger.Info("ticket has no reporter email, skipping notification",
			"ticket_id", ticket.ID)
		return nil
	}

	subject := fmt.Sprintf("Ticket Resolved: %s - %s", ticket.ID, ticket.Title)
	textBody, htmlBody := resolutionBodies(ticket)

	sendErr := n.SenderFactory(*creds).Send(recipient, subject, textBody, htmlBody)

	n.record(ctx, ticket.ID, actorID, recipient, subject, sendErr == nil)

	if sendErr != nil {
		n.logger.Warn("resolution notification failed",
			"ticket_id", ticket.ID, "recipient", recipient, "error", sendErr)
		return &SendFailedError{Recipient: recipient, Err: sendErr}
	}

	n.logger.Info("resolution notification sent",
		"ticket_id", ticket.ID, "recipient", recipient)
	return nil
}

// smtpCredentials loads the actor's SMTP settings, or nil when email is not
// configured or the stored credentials are incomplete.
func (n *Notifier) smtpCredentials(ctx context.Context, actorID string) (*model.EmailCredentials, error) {
	stored, err := n.settings.Get(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("loading smtp settings: %w", err)
	}
	if stored == nil || !stored.SMTP.Complete() {
		return nil, nil
	}
	creds := stored.SMTP
	return &creds, nil
}

// reporterEmail resolves the address of the ticket's reporter, or "" when
// the ticket has no reporter on file.
func (n *Notifier) reporterEmail(ctx context.Context, ticket model.Ticket) (string, error) {
	if ticket.ReporterID == "" {
		return "", nil
	}
	reporter, err := n.store.GetUserByID(ctx, ticket.ReporterID)
	if err != nil {
		return "", fmt.Errorf("loading reporter %s: %w", ticket.ReporterID, err)
	}
	if reporter == nil {
		return "", nil
	}
	return reporter.Email, nil
}

// record persists the notification attempt and audits it. Bookkeeping
// failures are logged, not propagated; the send outcome already happened.
func (n *Notifier) record(ctx context.Context, ticketID, actorID, recipient, subject string, delivered bool) {
	err := n.store.CreateNotification(ctx, model.Notification{
		TicketID:  ticketID,
		Recipient: recipient,
		Subject:   subject,
		Delivered: delivered,
	})
	if err != nil {
		n.logger.Warn("recording notification failed",
			"ticket_id", ticketID, "error", err)
	}

	n.audit.Record(audit.KindNotification, actorID,
		fmt.Sprintf("resolution email to %s", recipient),
		map[string]string{
			"ticket_id": ticketID,
			"delivered": strconv.FormatBool(delivered),
		},
	)
}

// resolutionBodies renders the plain-text and HTML versions of the
// resolution email.
func resolutionBodies(ticket model.Ticket) (text string, html string) {
	text = fmt.Sprintf(
		"Hello,\n\nYour support ticket %q with ID %s has been marked as resolved.\n\n"+
			"Thank you for using our support system.\n\nThe ProFlow Team",
		ticket.Title, ticket.ID,
	)
	html = fmt.Sprintf(
		"<p>Hello,</p>"+
			"<p>Your support ticket <strong>%s</strong> with ID <strong>%s</strong> "+
			"has been marked as resolved.</p>"+
			"<p>Thank you for using our support system.</p>"+
			"<p>The ProFlow Team</p>",
		ticket.Title, ticket.ID,
	)
	return text, html
}
