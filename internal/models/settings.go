package models

// ChannelSettings configures one notification channel for a user.
// Destination is a webhook URL for the webhook and chat channels, or an email
// address for the email channel (empty means fall back to the account email).
type ChannelSettings struct {
	Enabled         bool   `json:"enabled"`
	Destination     string `json:"destination,omitempty"`
	AlertOnCritical bool   `json:"alert_on_critical"`
	AlertOnHigh     bool   `json:"alert_on_high"`
}

// WantsSeverity reports whether the channel's severity gates admit sev.
// Only critical and high can ever pass; medium and low are always rejected.
func (c ChannelSettings) WantsSeverity(sev Severity) bool {
	switch sev {
	case SeverityCritical:
		return c.AlertOnCritical
	case SeverityHigh:
		return c.AlertOnHigh
	}
	return false
}

// NotificationSettings holds a user's per-channel alerting configuration.
type NotificationSettings struct {
	UserID  int             `json:"user_id"`
	Webhook ChannelSettings `json:"webhook"`
	Slack   ChannelSettings `json:"slack"`
	Email   ChannelSettings `json:"email"`
}
