package sync

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/proflow/proflow/internal/mail"
	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/store"
)

// SubjectMarker is the literal, case-sensitive token that makes an inbox
// message eligible for ticket creation.
const SubjectMarker = "[TICKET]"

// TicketIDPrefix prefixes every ticket identifier derived from an email.
const TicketIDPrefix = "EMAIL-"

// Defaults substituted when an eligible message carries no usable title or
// body text.
const (
	DefaultTitle       = "New Ticket from Email"
	DefaultDescription = "No description provided."
)

// fallbackReporterName is used when neither a display name nor an email
// local part is available.
const fallbackReporterName = "Email User"

// idStripPattern matches the characters removed from a Message-ID when
// deriving a ticket identifier: angle brackets and whitespace.
var idStripPattern = regexp.MustCompile(`[<>\s]`)

// TicketIDForMessage derives the deterministic ticket identifier for a mail
// message. The same message always maps to the same identifier, which is
// what makes re-running the sync idempotent. Messages without a Message-ID
// fall back to a timestamp-based identifier (not deterministic, but such
// messages cannot be deduplicated anyway).
func TicketIDForMessage(messageID string, now time.Time) string {
	stripped := idStripPattern.ReplaceAllString(messageID, "")
	if stripped == "" {
		return fmt.Sprintf("%s%d", TicketIDPrefix, now.UnixMilli())
	}
	return TicketIDPrefix + stripped
}

// Eligible reports whether a subject line carries the ticket marker.
func Eligible(subject string) bool {
	return strings.Contains(subject, SubjectMarker)
}

// Translation is the outcome of translating one eligible message: the draft
// to persist and the resolved reporter. NewReporter is set when the
// reporter did not exist before this message.
type Translation struct {
	Draft       model.TicketDraft
	Reporter    model.User
	NewReporter bool
}

// Translator turns eligible mail messages into ticket drafts, resolving or
// synthesizing the reporter identity against the user store.
type Translator struct {
	store            store.Store
	logger           *slog.Logger
	defaultProjectID string
}

// NewTranslator creates a translator that files drafts under the given
// default project.
func NewTranslator(s store.Store, logger *slog.Logger, defaultProjectID string) *Translator {
	return &Translator{
		store:            s,
		logger:           logger,
		defaultProjectID: defaultProjectID,
	}
}

// Translate produces a Translation for msg, or (nil, nil) when the message
// should be skipped: not eligible, already processed, or no valid initial
// status exists. Skips are logged; they are expected flow, not errors.
//
// The dedup check runs before any side effect, so a skipped duplicate
// creates neither a ticket nor a reporter.
func (t *Translator) Translate(ctx context.Context, msg mail.Message) (*Translation, error) {
	if !Eligible(msg.Subject) {
		return nil, nil
	}

	// A ticket needs a reporter contact; a message with no sender address
	// cannot produce one.
	if msg.From == "" {
		t.logger.Warn("message has no sender address, skipping",
			"message_id", msg.MessageID)
		return nil, nil
	}

	ticketID := TicketIDForMessage(msg.MessageID, time.Now())

	existing, err := t.store.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		t.logger.Info("message already processed, skipping",
			"ticket_id", ticketID, "message_id", msg.MessageID)
		return nil, nil
	}

	// Fail closed on a missing initial status: creating a ticket with no
	// valid status would violate the schema.
	status, err := t.store.GetStatusByName(ctx, model.StatusNameToDo)
	if err != nil {
		return nil, err
	}
	if status == nil {
		t.logger.Warn("initial status not found, skipping message",
			"status", model.StatusNameToDo, "message_id", msg.MessageID)
		return nil, nil
	}

	title := strings.TrimSpace(strings.ReplaceAll(msg.Subject, SubjectMarker, ""))
	if title == "" {
		title = DefaultTitle
	}

	description := msg.TextBody
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}

	reporter, isNew, err := t.resolveReporter(ctx, msg)
	if err != nil {
		return nil, err
	}

	return &Translation{
		Draft: model.TicketDraft{
			ID:          ticketID,
			Title:       title,
			Description: description,
			StatusID:    status.ID,
			Priority:    model.PriorityMedium,
			Category:    model.CategoryFromEmail,
			ProjectID:   t.defaultProjectID,
			ReporterID:  reporter.ID,
		},
		Reporter:    reporter,
		NewReporter: isNew,
	}, nil
}

// resolveReporter finds the user matching the sender's email address, or
// synthesizes a new identity when none exists. Existing identities are
// reused unchanged: the email's display name never overwrites a stored one.
func (t *Translator) resolveReporter(ctx context.Context, msg mail.Message) (model.User, bool, error) {
	existing, err := t.store.GetUserByEmail(ctx, msg.From)
	if err != nil {
		return model.User{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	name := msg.FromName
	if name == "" {
		name = localPart(msg.From)
	}
	if name == "" {
		name = fallbackReporterName
	}

	created, err := t.store.CreateUser(ctx, model.User{
		Name:         name,
		Email:        msg.From,
		AvatarURL:    avatarURL(name),
		PasswordHash: model.EmailUserPasswordHash,
	})
	if err != nil {
		return model.User{}, false, fmt.Errorf("creating reporter for %s: %w", msg.From, err)
	}

	return created, true, nil
}

// localPart returns the text before the '@' of an email address.
func localPart(addr string) string {
	if i := strings.IndexByte(addr, '@'); i > 0 {
		return addr[:i]
	}
	return ""
}

// avatarURL builds a placeholder avatar from the first letter of a name.
func avatarURL(name string) string {
	initial := "?"
	for _, r := range name {
		initial = string(unicode.ToUpper(r))
		break
	}
	return fmt.Sprintf(
		"https://placehold.co/32x32/E9D5FF/6D28D9/png?text=%s", initial,
	)
}
