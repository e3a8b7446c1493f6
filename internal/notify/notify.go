// Package notify fans scan findings and audit summaries out to a user's
// configured notification channels: a generic incident webhook, a chat
// (Slack-compatible) webhook, and email.
package notify

import (
	"context"

	"github.com/crucial707/cloudscan/internal/models"
)

// FindingEvent is one finding-level alert.
type FindingEvent struct {
	Provider    models.Provider
	AccountName string
	Finding     models.Finding
}

// SummaryEvent is one audit-completion alert.
type SummaryEvent struct {
	Provider    models.Provider
	AccountName string
	Summary     models.SeveritySummary
}

// Channel delivers rendered notifications over one transport. Implementations
// must be safe for concurrent use.
type Channel interface {
	Name() string
	SendFinding(ctx context.Context, dest string, ev FindingEvent) error
	SendSummary(ctx context.Context, dest string, ev SummaryEvent) error
}

// SettingsSource provides the per-user channel configuration and the account
// email used as the email channel's fallback destination.
type SettingsSource interface {
	GetUserNotificationSettings(ctx context.Context, userID int) (*models.NotificationSettings, error)
	GetUserEmail(ctx context.Context, userID int) (string, error)
}
