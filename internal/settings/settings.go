// Package settings is the per-user email configuration collaborator. The
// non-secret connection fields live in the store; mailbox passwords live in
// the system keyring and are joined back in on read.
package settings

import (
	"context"
	"fmt"

	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/store"
)

// SecretStore is the keyring surface the settings service needs.
// *credential.Keyring implements it.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Delete(key string) error
}

// Service loads and saves per-user email settings.
type Service struct {
	store   store.Store
	secrets SecretStore

	// insecureTLS is applied to credentials handed to the mail clients;
	// it is deployment-level configuration, not per-user.
	insecureTLS bool
}

// NewService creates a settings service.
func NewService(s store.Store, secrets SecretStore, insecureTLS bool) *Service {
	return &Service{store: s, secrets: secrets, insecureTLS: insecureTLS}
}

func imapPassKey(userID string) string { return "imap-pass:" + userID }
func smtpPassKey(userID string) string { return "smtp-pass:" + userID }

// Get returns the user's email settings with passwords resolved from the
// keyring, or nil when the user has never configured email. A missing
// keyring entry leaves the password empty; completeness checks downstream
// treat that as not configured.
func (s *Service) Get(ctx context.Context, userID string) (*model.EmailSettings, error) {
	settings, err := s.store.GetEmailSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}

	if pass, err := s.secrets.Get(imapPassKey(userID)); err == nil {
		settings.IMAP.Pass = pass
	}
	if pass, err := s.secrets.Get(smtpPassKey(userID)); err == nil {
		settings.SMTP.Pass = pass
	}

	settings.IMAP.InsecureTLS = s.insecureTLS
	settings.SMTP.InsecureTLS = s.insecureTLS

	return settings, nil
}

// Save stores the user's email settings, splitting passwords out to the
// keyring. An empty password field leaves the stored secret untouched, so
// clients can update hosts and ports without re-submitting passwords.
func (s *Service) Save(ctx context.Context, userID string, settings model.EmailSettings) error {
	if settings.IMAP.Pass != "" {
		if err := s.secrets.Set(imapPassKey(userID), settings.IMAP.Pass); err != nil {
			return fmt.Errorf("storing imap password: %w", err)
		}
	}
	if settings.SMTP.Pass != "" {
		if err := s.secrets.Set(smtpPassKey(userID), settings.SMTP.Pass); err != nil {
			return fmt.Errorf("storing smtp password: %w", err)
		}
	}

	settings.IMAP.Pass = ""
	settings.SMTP.Pass = ""

	return s.store.UpsertEmailSettings(ctx, userID, settings)
}
