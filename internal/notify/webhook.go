package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookSender posts incident-style JSON to a user-configured webhook URL.
type WebhookSender struct {
	Client *http.Client
}

// NewWebhookSender returns a WebhookSender with a bounded HTTP client.
func NewWebhookSender() *WebhookSender {
	return &WebhookSender{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *WebhookSender) Name() string { return "webhook" }

type webhookPayload struct {
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	Resource       string `json:"resource,omitempty"`
	Description    string `json:"description,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Account        string `json:"account"`
	CloudProvider  string `json:"cloud_provider"`
}

// SendFinding posts one finding as an incident payload.
func (s *WebhookSender) SendFinding(ctx context.Context, dest string, ev FindingEvent) error {
	return s.post(ctx, dest, webhookPayload{
		Title:          ev.Finding.Title,
		Severity:       strings.ToUpper(string(ev.Finding.Severity)),
		Resource:       ev.Finding.Resource,
		Description:    ev.Finding.Description,
		Recommendation: ev.Finding.Recommendation,
		Account:        ev.AccountName,
		CloudProvider:  ev.Provider.DisplayName(),
	})
}

// SendSummary posts an audit-complete payload with the severity counts.
func (s *WebhookSender) SendSummary(ctx context.Context, dest string, ev SummaryEvent) error {
	severity := "HIGH"
	if ev.Summary.Critical > 0 {
		severity = "CRITICAL"
	}
	return s.post(ctx, dest, webhookPayload{
		Title:    "Security Audit Complete",
		Severity: severity,
		Description: fmt.Sprintf("%d critical, %d high, %d medium, %d low (%d total)",
			ev.Summary.Critical, ev.Summary.High, ev.Summary.Medium, ev.Summary.Low, ev.Summary.Total),
		Account:       ev.AccountName,
		CloudProvider: ev.Provider.DisplayName(),
	})
}

func (s *WebhookSender) post(ctx context.Context, dest string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
