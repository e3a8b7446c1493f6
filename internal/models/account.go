package models

import "time"

// Frequency is how often a scheduled scan recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ScheduleSpec describes when an account's automated scans run. All times are UTC.
type ScheduleSpec struct {
	Enabled   bool      `json:"enabled"`
	Frequency Frequency `json:"frequency"`
	HourUTC   int       `json:"hour_utc"` // 0..23

	// DayOfWeek is only meaningful for weekly schedules; 0 = Sunday.
	DayOfWeek *int `json:"day_of_week,omitempty"`
	// DayOfMonth is only meaningful for monthly schedules; 1..31.
	DayOfMonth *int `json:"day_of_month,omitempty"`

	// NextRunAt is the next absolute time this account is due.
	// Nil means the account has not been scheduled yet.
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// CloudAccount is a scannable account in one provider domain: an AWS account,
// a GCP project, or an Azure subscription.
type CloudAccount struct {
	ID         int      `json:"id"`
	Provider   Provider `json:"provider"`
	UserID     int      `json:"user_id"`
	Name       string   `json:"name"`
	ExternalID string   `json:"external_id"` // account ID / project ID / subscription ID

	IsActive   bool         `json:"is_active"`
	LastScanAt *time.Time   `json:"last_scan_at,omitempty"`
	Schedule   ScheduleSpec `json:"schedule"`
	CreatedAt  time.Time    `json:"created_at"`
}
