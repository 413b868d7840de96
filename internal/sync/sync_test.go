package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/proflow/proflow/internal/audit"
	"github.com/proflow/proflow/internal/mail"
	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/settings"
	"github.com/proflow/proflow/internal/store"
	"github.com/proflow/proflow/tests/testutil"
)

// fakeSecrets is an in-memory SecretStore.
type fakeSecrets map[string]string

func (f fakeSecrets) Get(key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", fmt.Errorf("secret %q not found", key)
	}
	return v, nil
}

func (f fakeSecrets) Set(key, value string) error { f[key] = value; return nil }
func (f fakeSecrets) Delete(key string) error     { delete(f, key); return nil }

// fakeFetcher returns a canned batch of messages.
type fakeFetcher struct {
	messages []mail.Message
	err      error
}

func (f *fakeFetcher) FetchUnread(_ context.Context) ([]mail.Message, error) {
	return f.messages, f.err
}

func newTestOrchestrator(t *testing.T, s store.Store) *Orchestrator {
	t.Helper()
	settingsSvc := settings.NewService(s, fakeSecrets{}, true)
	return NewOrchestrator(s, settingsSvc, audit.NewLog(16), discardLogger(),
		model.SyncConfig{DefaultProjectID: "PROJ-1", InsecureTLS: true})
}

func withFetcher(o *Orchestrator, f Fetcher) *Orchestrator {
	o.FetcherFactory = func(model.EmailCredentials) Fetcher { return f }
	return o
}

var testCreds = &model.EmailCredentials{
	Host: "imap.example.com", Port: "993", User: "inbox@example.com", Pass: "secret", TLS: true,
}

func TestSyncUnauthorized(t *testing.T) {
	s := testutil.NewSeededStore(t)
	o := newTestOrchestrator(t, s)

	for _, callerID := range []string{"", "USER-does-not-exist"} {
		_, err := o.Sync(context.Background(), callerID, testCreds)
		syncErr, ok := AsSyncError(err)
		if !ok {
			t.Fatalf("caller %q: expected SyncError, got %v", callerID, err)
		}
		if syncErr.Kind != KindUnauthorized {
			t.Errorf("caller %q: kind = %v, want KindUnauthorized", callerID, syncErr.Kind)
		}
	}
}

func TestSyncNoConfiguration(t *testing.T) {
	s := testutil.NewSeededStore(t)
	o := newTestOrchestrator(t, s)

	// Seeded admin has no stored email settings and supplies no override.
	_, err := o.Sync(context.Background(), "USER-1", nil)
	syncErr, ok := AsSyncError(err)
	if !ok {
		t.Fatalf("expected SyncError, got %v", err)
	}
	if syncErr.Kind != KindConfiguration {
		t.Errorf("kind = %v, want KindConfiguration", syncErr.Kind)
	}
}

func TestSyncCreatesTickets(t *testing.T) {
	s := testutil.NewSeededStore(t)
	o := withFetcher(newTestOrchestrator(t, s), &fakeFetcher{messages: []mail.Message{
		{MessageID: "<m1@x>", Subject: "[TICKET] One", From: "u1@example.com", TextBody: "a"},
		{MessageID: "<m2@x>", Subject: "newsletter", From: "spam@example.com"},
		{MessageID: "<m3@x>", Subject: "[TICKET] Two", From: "u1@example.com", TextBody: "b"},
	}})

	result, err := o.Sync(context.Background(), "USER-1", testCreds)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
	if result.Count != 2 {
		t.Errorf("Count = %d, want 2", result.Count)
	}
	if len(result.Tickets) != 2 {
		t.Fatalf("Tickets = %d, want 2", len(result.Tickets))
	}
	// Same sender across both messages: exactly one new user.
	if len(result.NewUsers) != 1 {
		t.Errorf("NewUsers = %d, want 1", len(result.NewUsers))
	}

	ticket, err := s.GetTicketByID(context.Background(), "EMAIL-m1@x")
	if err != nil {
		t.Fatalf("GetTicketByID: %v", err)
	}
	if ticket == nil {
		t.Fatal("ticket EMAIL-m1@x not persisted")
	}
	if ticket.Title != "One" {
		t.Errorf("ticket title = %q", ticket.Title)
	}
}

func TestSyncRerunIsIdempotent(t *testing.T) {
	s := testutil.NewSeededStore(t)
	fetcher := &fakeFetcher{messages: []mail.Message{
		{MessageID: "<same@x>", Subject: "[TICKET] Same", From: "u@example.com"},
	}}
	o := withFetcher(newTestOrchestrator(t, s), fetcher)

	first, err := o.Sync(context.Background(), "USER-1", testCreds)
	if err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if first.Count != 1 {
		t.Fatalf("first run Count = %d, want 1", first.Count)
	}

	// Simulate the seen-flag update having failed: the same message comes
	// back on the next run and must not produce a second ticket.
	second, err := o.Sync(context.Background(), "USER-1", testCreds)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if second.Count != 0 {
		t.Errorf("second run Count = %d, want 0", second.Count)
	}
	if second.Processed != 1 {
		t.Errorf("second run Processed = %d, want 1", second.Processed)
	}
}

func TestSyncCountsSenderlessMessages(t *testing.T) {
	s := testutil.NewSeededStore(t)
	o := withFetcher(newTestOrchestrator(t, s), &fakeFetcher{messages: []mail.Message{
		{MessageID: "<anon@x>", Subject: "[TICKET] From nobody", TextBody: "a"},
		{MessageID: "<ok@x>", Subject: "[TICKET] Fine", From: "u@example.com"},
	}})

	result, err := o.Sync(context.Background(), "USER-1", testCreds)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// A message with no sender creates no ticket, but it was still fetched
	// and counts toward processed.
	if result.Processed != 2 {
		t.Errorf("Processed = %d, want 2", result.Processed)
	}
	if result.Count != 1 {
		t.Errorf("Count = %d, want 1", result.Count)
	}
}

func TestSyncEmptyMailbox(t *testing.T) {
	s := testutil.NewSeededStore(t)
	o := withFetcher(newTestOrchestrator(t, s), &fakeFetcher{})

	result, err := o.Sync(context.Background(), "USER-1", testCreds)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Processed != 0 || result.Count != 0 {
		t.Errorf("empty mailbox: Processed=%d Count=%d, want 0/0",
			result.Processed, result.Count)
	}
}

// failingTicketStore wraps a Store and fails CreateTicket for one ticket ID.
type failingTicketStore struct {
	store.Store
	failID string
}

func (f *failingTicketStore) CreateTicket(ctx context.Context, draft model.TicketDraft) (model.Ticket, error) {
	if draft.ID == f.failID {
		return model.Ticket{}, errors.New("disk full")
	}
	return f.Store.CreateTicket(ctx, draft)
}

func TestSyncIsolatesPerMessageFailures(t *testing.T) {
	s := &failingTicketStore{Store: testutil.NewSeededStore(t), failID: "EMAIL-bad@x"}
	o := withFetcher(newTestOrchestrator(t, s), &fakeFetcher{messages: []mail.Message{
		{MessageID: "<ok1@x>", Subject: "[TICKET] First", From: "u@example.com"},
		{MessageID: "<bad@x>", Subject: "[TICKET] Broken", From: "u@example.com"},
		{MessageID: "<ok2@x>", Subject: "[TICKET] Third", From: "u@example.com"},
	}})

	result, err := o.Sync(context.Background(), "USER-1", testCreds)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Count != 2 {
		t.Errorf("Count = %d, want 2 (failed message skipped)", result.Count)
	}
	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
}

func TestSyncStoredSettingsFallback(t *testing.T) {
	s := testutil.NewSeededStore(t)
	secrets := fakeSecrets{}
	settingsSvc := settings.NewService(s, secrets, true)
	o := NewOrchestrator(s, settingsSvc, audit.NewLog(16), discardLogger(),
		model.SyncConfig{DefaultProjectID: "PROJ-1", InsecureTLS: true})

	err := settingsSvc.Save(context.Background(), "USER-1", model.EmailSettings{
		IMAP: model.EmailCredentials{
			Host: "imap.example.com", Port: "993",
			User: "stored@example.com", Pass: "stored-secret", TLS: true,
		},
	})
	if err != nil {
		t.Fatalf("Save settings: %v", err)
	}

	var gotUser string
	o.FetcherFactory = func(creds model.EmailCredentials) Fetcher {
		gotUser = creds.User
		return &fakeFetcher{}
	}

	// No override: the stored settings must be used.
	if _, err := o.Sync(context.Background(), "USER-1", nil); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if gotUser != "stored@example.com" {
		t.Errorf("fetcher credentials user = %q, want stored settings", gotUser)
	}

	// Complete override wins over stored settings.
	if _, err := o.Sync(context.Background(), "USER-1", testCreds); err != nil {
		t.Fatalf("Sync with override: %v", err)
	}
	if gotUser != testCreds.User {
		t.Errorf("fetcher credentials user = %q, want override", gotUser)
	}
}

func TestSyncClassifiesFetchErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"config", &mail.ConfigError{Missing: []string{"host"}}, KindConfiguration},
		{"connection", &mail.ConnectionError{Addr: "x:993", Err: errors.New("refused")}, KindConnection},
		{"protocol", &mail.ProtocolError{Op: "selecting INBOX", Err: errors.New("no")}, KindProtocol},
		{"other", errors.New("boom"), KindFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testutil.NewSeededStore(t)
			o := withFetcher(newTestOrchestrator(t, s), &fakeFetcher{err: tc.err})

			_, err := o.Sync(context.Background(), "USER-1", testCreds)
			syncErr, ok := AsSyncError(err)
			if !ok {
				t.Fatalf("expected SyncError, got %v", err)
			}
			if syncErr.Kind != tc.want {
				t.Errorf("kind = %v, want %v", syncErr.Kind, tc.want)
			}
		})
	}
}
