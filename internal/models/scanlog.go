package models

import "time"

// Execution log statuses.
const (
	ScanLogStatusSuccess = "success"
	ScanLogStatusFailed  = "failed"
)

// ScanLogEntry is one immutable row in the scheduled scan execution log.
// One entry is written per scheduler attempt; entries are never updated.
type ScanLogEntry struct {
	ID           int       `json:"id"`
	Provider     Provider  `json:"provider"`
	AccountID    int       `json:"account_id"`
	UserID       int       `json:"user_id"`
	ScheduledFor time.Time `json:"scheduled_for"` // the due time that triggered the attempt
	ExecutedAt   time.Time `json:"executed_at"`
	Status       string    `json:"status"`
	AuditID      *int      `json:"audit_id,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}
