package models

// Severity classifies a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Alertable reports whether this severity can ever trigger a notification.
func (s Severity) Alertable() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// Finding is one security finding produced by the scan engine.
type Finding struct {
	ID             int      `json:"id"`
	AuditID        int      `json:"audit_id"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Resource       string   `json:"resource"`
	ResourceType   string   `json:"resource_type,omitempty"`
	Region         string   `json:"region,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}
