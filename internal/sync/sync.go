// Package sync implements the email-to-ticket pipeline: it pulls unread
// messages from a mailbox, translates the eligible ones into tickets, and
// reports what was created.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/proflow/proflow/internal/audit"
	"github.com/proflow/proflow/internal/mail"
	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/settings"
	"github.com/proflow/proflow/internal/store"
)

// Fetcher pulls unread messages from a mailbox. *mail.Client implements it;
// tests substitute fakes.
type Fetcher interface {
	FetchUnread(ctx context.Context) ([]mail.Message, error)
}

// Orchestrator coordinates one sync run: credential resolution, fetch,
// translation, persistence, and result aggregation.
type Orchestrator struct {
	store      store.Store
	settings   *settings.Service
	translator *Translator
	audit      *audit.Log
	logger     *slog.Logger
	cfg        model.SyncConfig

	// FetcherFactory returns the mail fetcher for a run. The default dials
	// IMAP with the resolved credentials; tests replace it.
	FetcherFactory func(creds model.EmailCredentials) Fetcher
}

// NewOrchestrator wires a sync orchestrator.
func NewOrchestrator(
	s store.Store,
	settingsSvc *settings.Service,
	auditLog *audit.Log,
	logger *slog.Logger,
	cfg model.SyncConfig,
) *Orchestrator {
	return &Orchestrator{
		store:      s,
		settings:   settingsSvc,
		translator: NewTranslator(s, logger, cfg.DefaultProjectID),
		audit:      auditLog,
		logger:     logger,
		cfg:        cfg,
		FetcherFactory: func(creds model.EmailCredentials) Fetcher {
			return mail.NewClient(creds, logger)
		},
	}
}

// Sync runs the pipeline for the given caller. Request-supplied credentials
// take precedence when complete; otherwise the caller's stored settings are
// used. All failures come back as *SyncError so the HTTP boundary can map
// them without string matching.
//
// Messages are processed sequentially: the dedup check for each message
// must observe tickets created earlier in the same run.
func (o *Orchestrator) Sync(
	ctx context.Context,
	callerID string,
	override *model.EmailCredentials,
) (*model.SyncResult, error) {
	caller, err := o.authorize(ctx, callerID)
	if err != nil {
		return nil, err
	}

	creds, err := o.resolveCredentials(ctx, caller.ID, override)
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	o.logger.Info("email sync started", "user", caller.ID)

	messages, err := o.FetcherFactory(*creds).FetchUnread(ctx)
	if err != nil {
		return nil, classifyMailError(err)
	}

	result := &model.SyncResult{
		Tickets:   []model.Ticket{},
		NewUsers:  []model.User{},
		Processed: len(messages),
		StartedAt: started,
	}

	for _, msg := range messages {
		if !Eligible(msg.Subject) {
			continue
		}
		o.processMessage(ctx, msg, result)
	}

	result.Count = len(result.Tickets)

	o.logger.Info("email sync completed",
		"user", caller.ID,
		"processed", result.Processed,
		"created", result.Count,
		"new_users", len(result.NewUsers),
	)
	o.audit.Record(audit.KindSyncRun, caller.ID,
		fmt.Sprintf("processed %d messages, created %d tickets", result.Processed, result.Count),
		map[string]string{
			"processed": fmt.Sprint(result.Processed),
			"created":   fmt.Sprint(result.Count),
		},
	)

	return result, nil
}

// processMessage translates and persists a single message, appending to the
// run's accumulator. Failures are contained: one bad message never aborts
// the rest of the batch.
func (o *Orchestrator) processMessage(
	ctx context.Context,
	msg mail.Message,
	result *model.SyncResult,
) {
	translation, err := o.translator.Translate(ctx, msg)
	if err != nil {
		o.logger.Warn("translating message failed, skipping",
			"message_id", msg.MessageID, "error", err)
		return
	}
	if translation == nil {
		return
	}

	ticket, err := o.store.CreateTicket(ctx, translation.Draft)
	if err != nil {
		// The reporter may already have been created; that is safe, user
		// creation is idempotent on email and a re-run will reuse it.
		o.logger.Warn("persisting ticket failed, skipping message",
			"ticket_id", translation.Draft.ID, "error", err)
		return
	}

	result.Tickets = append(result.Tickets, ticket)
	if translation.NewReporter {
		result.NewUsers = append(result.NewUsers, translation.Reporter)
	}

	o.logger.Info("created ticket from email",
		"ticket_id", ticket.ID, "reporter", translation.Reporter.Email)
}

// authorize checks that the caller has a valid identity.
func (o *Orchestrator) authorize(ctx context.Context, callerID string) (*model.User, error) {
	if callerID == "" {
		return nil, &SyncError{Kind: KindUnauthorized, Message: "Unauthorized"}
	}
	caller, err := o.store.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, &SyncError{Kind: KindFailed, Message: "Failed to sync emails", Err: err}
	}
	if caller == nil {
		return nil, &SyncError{Kind: KindUnauthorized, Message: "Unauthorized"}
	}
	return caller, nil
}

// resolveCredentials picks the effective IMAP credentials: the request
// override when complete, else the caller's stored settings.
func (o *Orchestrator) resolveCredentials(
	ctx context.Context,
	callerID string,
	override *model.EmailCredentials,
) (*model.EmailCredentials, error) {
	if override != nil && override.Complete() {
		creds := *override
		creds.InsecureTLS = o.cfg.InsecureTLS
		return &creds, nil
	}

	stored, err := o.settings.Get(ctx, callerID)
	if err != nil {
		return nil, &SyncError{Kind: KindFailed, Message: "Failed to sync emails", Err: err}
	}
	if stored == nil || !stored.IMAP.Complete() {
		return nil, &SyncError{
			Kind:    KindConfiguration,
			Message: "Email configuration not set up for this user",
		}
	}

	creds := stored.IMAP
	return &creds, nil
}

// classifyMailError maps transport errors onto the sync taxonomy.
func classifyMailError(err error) *SyncError {
	switch {
	case mail.IsConfigError(err):
		return &SyncError{Kind: KindConfiguration, Message: "Email configuration incomplete", Err: err}
	case mail.IsConnectionError(err):
		return &SyncError{Kind: KindConnection, Message: "Failed to connect to mail server", Err: err}
	case mail.IsProtocolError(err):
		return &SyncError{Kind: KindProtocol, Message: "Mail server rejected the request", Err: err}
	default:
		return &SyncError{Kind: KindFailed, Message: "Failed to sync emails", Err: err}
	}
}
