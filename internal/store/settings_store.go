package store

import (
	"context"
	"fmt"
	"time"

	"github.com/proflow/proflow/internal/model"
)

// emailSettingsRow mirrors the email_settings table. Passwords are never
// stored here; the settings service keeps them in the system keyring.
type emailSettingsRow struct {
	UserID    string    `db:"user_id"`
	IMAPHost  string    `db:"imap_host"`
	IMAPPort  string    `db:"imap_port"`
	IMAPUser  string    `db:"imap_user"`
	IMAPTLS   int       `db:"imap_tls"`
	SMTPHost  string    `db:"smtp_host"`
	SMTPPort  string    `db:"smtp_port"`
	SMTPUser  string    `db:"smtp_user"`
	SMTPTLS   int       `db:"smtp_tls"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpsertEmailSettings stores the non-secret mailbox settings for a user.
func (s *SQLiteStore) UpsertEmailSettings(
	ctx context.Context,
	userID string,
	settings model.EmailSettings,
) error {
	if userID == "" {
		return fmt.Errorf("user id must not be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_settings (
			user_id, imap_host, imap_port, imap_user, imap_tls,
			smtp_host, smtp_port, smtp_user, smtp_tls, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			imap_user = excluded.imap_user,
			imap_tls = excluded.imap_tls,
			smtp_host = excluded.smtp_host,
			smtp_port = excluded.smtp_port,
			smtp_user = excluded.smtp_user,
			smtp_tls = excluded.smtp_tls,
			updated_at = excluded.updated_at`,
		userID,
		settings.IMAP.Host, settings.IMAP.Port, settings.IMAP.User,
		boolToInt(settings.IMAP.TLS),
		settings.SMTP.Host, settings.SMTP.Port, settings.SMTP.User,
		boolToInt(settings.SMTP.TLS),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting email settings for %s: %w", userID, err)
	}

	return nil
}

// GetEmailSettings retrieves a user's mailbox settings, or nil if the user
// has never configured email. Password fields are always empty here.
func (s *SQLiteStore) GetEmailSettings(
	ctx context.Context,
	userID string,
) (*model.EmailSettings, error) {
	var row emailSettingsRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM email_settings WHERE user_id = ?", userID,
	)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting email settings for %s: %w", userID, err)
	}

	return &model.EmailSettings{
		IMAP: model.EmailCredentials{
			Host: row.IMAPHost,
			Port: row.IMAPPort,
			User: row.IMAPUser,
			TLS:  row.IMAPTLS != 0,
		},
		SMTP: model.EmailCredentials{
			Host: row.SMTPHost,
			Port: row.SMTPPort,
			User: row.SMTPUser,
			TLS:  row.SMTPTLS != 0,
		},
	}, nil
}
