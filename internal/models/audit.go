package models

import "time"

// Audit statuses. The scheduler creates audits as running; the scan engine
// moves them to completed or failed.
const (
	AuditStatusRunning   = "running"
	AuditStatusCompleted = "completed"
	AuditStatusFailed    = "failed"
)

// SeveritySummary is the aggregated finding counts for one audit.
type SeveritySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// HasAlertable reports whether the summary contains anything worth notifying
// about. Medium and low findings never trigger notifications.
func (s SeveritySummary) HasAlertable() bool {
	return s.Critical > 0 || s.High > 0
}

// Audit represents one scan attempt against a cloud account.
type Audit struct {
	ID          int             `json:"id"`
	Provider    Provider        `json:"provider"`
	AccountID   int             `json:"account_id"`
	Status      string          `json:"status"`
	Summary     SeveritySummary `json:"summary"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
