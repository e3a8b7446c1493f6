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

// SlackSender posts Block Kit formatted messages to a chat webhook URL.
// The payload shape is Slack's, which Mattermost and compatible tools accept.
type SlackSender struct {
	Client *http.Client
}

// NewSlackSender returns a SlackSender with a bounded HTTP client.
func NewSlackSender() *SlackSender {
	return &SlackSender{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *SlackSender) Name() string { return "slack" }

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

func severityEmoji(sev string) string {
	switch strings.ToLower(sev) {
	case "critical":
		return ":rotating_light:"
	case "high":
		return ":warning:"
	}
	return ":information_source:"
}

// SendFinding posts one finding: severity header, field grid, description,
// and a recommendation context line.
func (s *SlackSender) SendFinding(ctx context.Context, dest string, ev FindingEvent) error {
	sev := string(ev.Finding.Severity)
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%s %s: %s",
				severityEmoji(sev), strings.ToUpper(sev), ev.Finding.Title)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Severity:*\n" + strings.ToUpper(sev)},
				{Type: "mrkdwn", Text: "*Provider:*\n" + ev.Provider.DisplayName()},
				{Type: "mrkdwn", Text: "*Resource:*\n" + ev.Finding.Resource},
				{Type: "mrkdwn", Text: "*Region:*\n" + orDash(ev.Finding.Region)},
			},
		},
	}
	if ev.Finding.Description != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: ev.Finding.Description},
		})
	}
	if ev.Finding.Recommendation != "" {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: ":bulb: " + ev.Finding.Recommendation}},
		})
	}
	return s.post(ctx, dest, slackPayload{Blocks: blocks})
}

// SendSummary posts the audit completion summary with the severity counts.
func (s *SlackSender) SendSummary(ctx context.Context, dest string, ev SummaryEvent) error {
	sev := "high"
	if ev.Summary.Critical > 0 {
		sev = "critical"
	}
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%s Security Audit Complete - %s",
				severityEmoji(sev), ev.AccountName)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Critical:*\n%d", ev.Summary.Critical)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*High:*\n%d", ev.Summary.High)},
				{Type: "mrkdwn", Text: "*Provider:*\n" + ev.Provider.DisplayName()},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Total findings:*\n%d", ev.Summary.Total)},
			},
		},
	}
	return s.post(ctx, dest, slackPayload{Blocks: blocks})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (s *SlackSender) post(ctx context.Context, dest string, payload slackPayload) error {
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
		return fmt.Errorf("chat webhook returned %d", resp.StatusCode)
	}
	return nil
}
