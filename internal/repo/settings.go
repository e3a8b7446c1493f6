package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/cloudscan/internal/models"
)

// SettingsRepo persists per-user notification settings.
type SettingsRepo struct {
	DB *sql.DB
}

// NewSettingsRepo returns a new SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{DB: db}
}

// GetByUserID returns the user's notification settings, or nil if the user
// has never configured any.
func (r *SettingsRepo) GetByUserID(ctx context.Context, userID int) (*models.NotificationSettings, error) {
	s := &models.NotificationSettings{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id,
		       webhook_enabled, COALESCE(webhook_url,''), webhook_on_critical, webhook_on_high,
		       slack_enabled, COALESCE(slack_webhook_url,''), slack_on_critical, slack_on_high,
		       email_enabled, COALESCE(email_address,''), email_on_critical, email_on_high
		FROM notification_settings WHERE user_id = $1`,
		userID,
	).Scan(
		&s.UserID,
		&s.Webhook.Enabled, &s.Webhook.Destination, &s.Webhook.AlertOnCritical, &s.Webhook.AlertOnHigh,
		&s.Slack.Enabled, &s.Slack.Destination, &s.Slack.AlertOnCritical, &s.Slack.AlertOnHigh,
		&s.Email.Enabled, &s.Email.Destination, &s.Email.AlertOnCritical, &s.Email.AlertOnHigh,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert creates or replaces the user's notification settings.
func (r *SettingsRepo) Upsert(ctx context.Context, s models.NotificationSettings) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notification_settings
			(user_id,
			 webhook_enabled, webhook_url, webhook_on_critical, webhook_on_high,
			 slack_enabled, slack_webhook_url, slack_on_critical, slack_on_high,
			 email_enabled, email_address, email_on_critical, email_on_high)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			webhook_enabled = EXCLUDED.webhook_enabled,
			webhook_url = EXCLUDED.webhook_url,
			webhook_on_critical = EXCLUDED.webhook_on_critical,
			webhook_on_high = EXCLUDED.webhook_on_high,
			slack_enabled = EXCLUDED.slack_enabled,
			slack_webhook_url = EXCLUDED.slack_webhook_url,
			slack_on_critical = EXCLUDED.slack_on_critical,
			slack_on_high = EXCLUDED.slack_on_high,
			email_enabled = EXCLUDED.email_enabled,
			email_address = EXCLUDED.email_address,
			email_on_critical = EXCLUDED.email_on_critical,
			email_on_high = EXCLUDED.email_on_high`,
		s.UserID,
		s.Webhook.Enabled, nullStr(s.Webhook.Destination), s.Webhook.AlertOnCritical, s.Webhook.AlertOnHigh,
		s.Slack.Enabled, nullStr(s.Slack.Destination), s.Slack.AlertOnCritical, s.Slack.AlertOnHigh,
		s.Email.Enabled, nullStr(s.Email.Destination), s.Email.AlertOnCritical, s.Email.AlertOnHigh,
	)
	return err
}
