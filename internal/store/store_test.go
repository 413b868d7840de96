package store_test

import (
	"context"
	"testing"

	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/store"
	"github.com/proflow/proflow/tests/testutil"
)

func TestCreateUserIdempotentOnEmail(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, model.User{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a generated ID")
	}

	second, err := s.CreateUser(ctx, model.User{Name: "Impostor", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("second CreateUser: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second create returned ID %q, want existing %q", second.ID, first.ID)
	}
	if second.Name != "Alice" {
		t.Errorf("existing user renamed to %q", second.Name)
	}
}

func TestCreateUserRequiresEmail(t *testing.T) {
	s := testutil.NewTestStore(t)

	if _, err := s.CreateUser(context.Background(), model.User{Name: "Nobody"}); err == nil {
		t.Error("expected error for empty email")
	}
}

func TestGetUserMissingReturnsNil(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user, err := s.GetUserByID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user != nil {
		t.Error("expected nil for missing user")
	}

	user, err = s.GetUserByEmail(ctx, "nope@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user != nil {
		t.Error("expected nil for missing email")
	}
}

func TestUpsertProjectAndStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertProject(ctx, model.Project{ID: "P1", Name: "First"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	if err := s.UpsertProject(ctx, model.Project{ID: "P1", Name: "Renamed"}); err != nil {
		t.Fatalf("UpsertProject again: %v", err)
	}
	p, err := s.GetProjectByID(ctx, "P1")
	if err != nil {
		t.Fatalf("GetProjectByID: %v", err)
	}
	if p == nil || p.Name != "Renamed" {
		t.Errorf("project = %+v, want name Renamed", p)
	}

	if err := s.UpsertStatus(ctx, model.Status{ID: "s1", Name: "To Do", Color: "#111"}); err != nil {
		t.Fatalf("UpsertStatus: %v", err)
	}
	st, err := s.GetStatusByName(ctx, "To Do")
	if err != nil {
		t.Fatalf("GetStatusByName: %v", err)
	}
	if st == nil || st.ID != "s1" {
		t.Errorf("status = %+v", st)
	}

	missing, err := s.GetStatusByName(ctx, "Archived")
	if err != nil {
		t.Fatalf("GetStatusByName missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown status name")
	}
}

func seedTicketDeps(t *testing.T, s store.Store) (statusID, projectID, reporterID string) {
	t.Helper()
	ctx := context.Background()

	if err := s.UpsertStatus(ctx, model.Status{ID: "status-todo", Name: "To Do"}); err != nil {
		t.Fatalf("seeding status: %v", err)
	}
	if err := s.UpsertProject(ctx, model.Project{ID: "PROJ-1", Name: "App"}); err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	reporter := testutil.CreateUser(t, s, "Reporter", "reporter@example.com")
	return "status-todo", "PROJ-1", reporter.ID
}

func TestCreateTicketRejectsDuplicateID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	statusID, projectID, reporterID := seedTicketDeps(t, s)

	draft := model.TicketDraft{
		ID:         "EMAIL-abc@example.com",
		Title:      "First",
		StatusID:   statusID,
		ProjectID:  projectID,
		ReporterID: reporterID,
	}

	if _, err := s.CreateTicket(ctx, draft); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	draft.Title = "Second attempt"
	if _, err := s.CreateTicket(ctx, draft); err == nil {
		t.Fatal("expected duplicate ID to fail")
	}

	stored, err := s.GetTicketByID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("GetTicketByID: %v", err)
	}
	if stored.Title != "First" {
		t.Errorf("original ticket overwritten: title = %q", stored.Title)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	statusID, projectID, reporterID := seedTicketDeps(t, s)

	if _, err := s.CreateTicket(ctx, model.TicketDraft{
		Title: "no id", StatusID: statusID, ProjectID: projectID, ReporterID: reporterID,
	}); err == nil {
		t.Error("expected error for empty ticket ID")
	}

	if _, err := s.CreateTicket(ctx, model.TicketDraft{
		ID: "T-1", StatusID: statusID, ProjectID: projectID, ReporterID: reporterID,
	}); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestUpdateTicket(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	statusID, projectID, reporterID := seedTicketDeps(t, s)

	created, err := s.CreateTicket(ctx, model.TicketDraft{
		ID: "T-1", Title: "Before", StatusID: statusID,
		ProjectID: projectID, ReporterID: reporterID,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	created.Title = "After"
	if err := s.UpdateTicket(ctx, created); err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}

	stored, err := s.GetTicketByID(ctx, "T-1")
	if err != nil {
		t.Fatalf("GetTicketByID: %v", err)
	}
	if stored.Title != "After" {
		t.Errorf("title = %q, want After", stored.Title)
	}

	created.ID = "T-missing"
	if err := s.UpdateTicket(ctx, created); err == nil {
		t.Error("expected error updating a missing ticket")
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, n := range []model.Notification{
		{TicketID: "T-1", Recipient: "a@example.com", Subject: "first", Delivered: true},
		{TicketID: "T-1", Recipient: "a@example.com", Subject: "second", Delivered: false},
		{TicketID: "T-2", Recipient: "b@example.com", Subject: "other"},
	} {
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	got, err := s.GetNotificationsForTicket(ctx, "T-1")
	if err != nil {
		t.Fatalf("GetNotificationsForTicket: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2", len(got))
	}
	for _, n := range got {
		if n.ID == "" {
			t.Error("notification missing generated ID")
		}
	}
}

func TestEmailSettingsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	missing, err := s.GetEmailSettings(ctx, "USER-1")
	if err != nil {
		t.Fatalf("GetEmailSettings: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unconfigured user")
	}

	in := model.EmailSettings{
		IMAP: model.EmailCredentials{
			Host: "imap.example.com", Port: "993",
			User: "in@example.com", Pass: "must-not-persist", TLS: true,
		},
		SMTP: model.EmailCredentials{
			Host: "smtp.example.com", Port: "587", User: "out@example.com",
		},
	}
	if err := s.UpsertEmailSettings(ctx, "USER-1", in); err != nil {
		t.Fatalf("UpsertEmailSettings: %v", err)
	}

	out, err := s.GetEmailSettings(ctx, "USER-1")
	if err != nil {
		t.Fatalf("GetEmailSettings: %v", err)
	}
	if out.IMAP.Host != "imap.example.com" || !out.IMAP.TLS {
		t.Errorf("imap settings = %+v", out.IMAP)
	}
	if out.SMTP.User != "out@example.com" || out.SMTP.TLS {
		t.Errorf("smtp settings = %+v", out.SMTP)
	}
	if out.IMAP.Pass != "" || out.SMTP.Pass != "" {
		t.Error("passwords must never come back from the store")
	}

	// Upsert replaces in place.
	in.IMAP.Host = "imap2.example.com"
	if err := s.UpsertEmailSettings(ctx, "USER-1", in); err != nil {
		t.Fatalf("second UpsertEmailSettings: %v", err)
	}
	out, err = s.GetEmailSettings(ctx, "USER-1")
	if err != nil {
		t.Fatalf("GetEmailSettings after upsert: %v", err)
	}
	if out.IMAP.Host != "imap2.example.com" {
		t.Errorf("imap host = %q after upsert", out.IMAP.Host)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, s); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := store.Seed(ctx, s); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	for _, name := range []string{"To Do", "In Progress", "Done"} {
		st, err := s.GetStatusByName(ctx, name)
		if err != nil {
			t.Fatalf("GetStatusByName(%q): %v", name, err)
		}
		if st == nil {
			t.Errorf("status %q not seeded", name)
		}
	}

	p, err := s.GetProjectByID(ctx, "PROJ-1")
	if err != nil {
		t.Fatalf("GetProjectByID: %v", err)
	}
	if p == nil {
		t.Error("PROJ-1 not seeded")
	}

	admin, err := s.GetUserByID(ctx, "USER-1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if admin == nil || admin.Email != "admin@proflow.local" {
		t.Errorf("admin user = %+v", admin)
	}
}
