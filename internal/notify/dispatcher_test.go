package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/crucial707/cloudscan/internal/models"
)

type fakeSettings struct {
	settings *models.NotificationSettings
	email    string
	err      error
}

func (f *fakeSettings) GetUserNotificationSettings(ctx context.Context, userID int) (*models.NotificationSettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) GetUserEmail(ctx context.Context, userID int) (string, error) {
	return f.email, nil
}

type fakeChannel struct {
	name string
	err  error

	mu        sync.Mutex
	findings  []FindingEvent
	summaries []SummaryEvent
	dests     []string
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) SendFinding(ctx context.Context, dest string, ev FindingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.findings = append(f.findings, ev)
	f.dests = append(f.dests, dest)
	return nil
}

func (f *fakeChannel) SendSummary(ctx context.Context, dest string, ev SummaryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.summaries = append(f.summaries, ev)
	f.dests = append(f.dests, dest)
	return nil
}

func (f *fakeChannel) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.findings) + len(f.summaries)
}

func allOn(dest string) models.ChannelSettings {
	return models.ChannelSettings{Enabled: true, Destination: dest, AlertOnCritical: true, AlertOnHigh: true}
}

func newTestDispatcher(src SettingsSource, channels ...Channel) *Dispatcher {
	d := NewDispatcher(src, channels...)
	d.pace = rate.Inf
	return d
}

func finding(sev models.Severity) models.Finding {
	return models.Finding{
		AuditID:  1,
		Severity: sev,
		Title:    "Public S3 bucket",
		Resource: "my-bucket",
	}
}

func TestDispatchFinding_MediumAndLowNeverSend(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	slack := &fakeChannel{name: "slack"}
	email := &fakeChannel{name: "email"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: allOn("https://hooks.example.com/x"),
		Slack:   allOn("https://hooks.slack.com/x"),
		Email:   allOn("sec@example.com"),
	}}
	d := newTestDispatcher(src, webhook, slack, email)

	for _, sev := range []models.Severity{models.SeverityMedium, models.SeverityLow} {
		d.DispatchFinding(context.Background(), 1, FindingEvent{
			Provider: models.ProviderAWS, AccountName: "prod", Finding: finding(sev),
		})
	}

	assert.Zero(t, webhook.sendCount())
	assert.Zero(t, slack.sendCount())
	assert.Zero(t, email.sendCount())
}

func TestDispatchFinding_SeverityGatesPerChannel(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	slack := &fakeChannel{name: "slack"}
	email := &fakeChannel{name: "email"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: models.ChannelSettings{Enabled: true, Destination: "https://h/w", AlertOnCritical: true},
		Slack:   models.ChannelSettings{Enabled: true, Destination: "https://h/s", AlertOnHigh: true},
		Email:   models.ChannelSettings{Enabled: false, Destination: "sec@example.com", AlertOnCritical: true},
	}}
	d := newTestDispatcher(src, webhook, slack, email)

	d.DispatchFinding(context.Background(), 1, FindingEvent{
		Provider: models.ProviderGCP, AccountName: "prod", Finding: finding(models.SeverityCritical),
	})

	assert.Equal(t, 1, webhook.sendCount(), "critical gate open on webhook")
	assert.Zero(t, slack.sendCount(), "slack only alerts on high")
	assert.Zero(t, email.sendCount(), "email disabled")

	d.DispatchFinding(context.Background(), 1, FindingEvent{
		Provider: models.ProviderGCP, AccountName: "prod", Finding: finding(models.SeverityHigh),
	})

	assert.Equal(t, 1, webhook.sendCount(), "webhook does not alert on high")
	assert.Equal(t, 1, slack.sendCount(), "high gate open on slack")
}

func TestDispatchFinding_WebhookWithoutURLIneligible(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: models.ChannelSettings{Enabled: true, AlertOnCritical: true},
	}}
	d := newTestDispatcher(src, webhook)

	d.DispatchFinding(context.Background(), 1, FindingEvent{
		Provider: models.ProviderAWS, AccountName: "prod", Finding: finding(models.SeverityCritical),
	})

	assert.Zero(t, webhook.sendCount())
}

func TestDispatchFinding_EmailFallsBackToAccountEmail(t *testing.T) {
	email := &fakeChannel{name: "email"}
	src := &fakeSettings{
		settings: &models.NotificationSettings{
			UserID: 1,
			Email:  models.ChannelSettings{Enabled: true, AlertOnCritical: true},
		},
		email: "owner@example.com",
	}
	d := newTestDispatcher(src, email)

	d.DispatchFinding(context.Background(), 1, FindingEvent{
		Provider: models.ProviderAzure, AccountName: "corp", Finding: finding(models.SeverityCritical),
	})

	require.Equal(t, 1, email.sendCount())
	assert.Equal(t, "owner@example.com", email.dests[0])
}

func TestDispatchFinding_ChannelIsolation(t *testing.T) {
	webhook := &fakeChannel{name: "webhook", err: errors.New("connection refused")}
	slack := &fakeChannel{name: "slack"}
	email := &fakeChannel{name: "email"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: allOn("https://h/w"),
		Slack:   allOn("https://h/s"),
		Email:   allOn("sec@example.com"),
	}}
	d := newTestDispatcher(src, webhook, slack, email)

	d.DispatchFinding(context.Background(), 1, FindingEvent{
		Provider: models.ProviderAWS, AccountName: "prod", Finding: finding(models.SeverityCritical),
	})

	assert.Equal(t, 1, slack.sendCount(), "slack still receives despite webhook failure")
	assert.Equal(t, 1, email.sendCount(), "email still receives despite webhook failure")
}

func TestDispatchSummary_AllClearSkipped(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: allOn("https://h/w"),
	}}
	d := newTestDispatcher(src, webhook)

	d.DispatchSummary(context.Background(), 1, SummaryEvent{
		Provider:    models.ProviderAWS,
		AccountName: "prod",
		Summary:     models.SeveritySummary{Medium: 4, Low: 9, Total: 13},
	})

	assert.Zero(t, webhook.sendCount())
}

func TestDispatchSummary_CriticalGatedChannelsFire(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	slack := &fakeChannel{name: "slack"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: models.ChannelSettings{Enabled: true, Destination: "https://h/w", AlertOnCritical: true},
		Slack:   models.ChannelSettings{Enabled: true, Destination: "https://h/s", AlertOnHigh: true},
	}}
	d := newTestDispatcher(src, webhook, slack)

	// critical:1 high:0 -> only the critical-gated channel fires
	d.DispatchSummary(context.Background(), 1, SummaryEvent{
		Provider:    models.ProviderAWS,
		AccountName: "prod",
		Summary:     models.SeveritySummary{Critical: 1, Medium: 2, Total: 3},
	})

	assert.Equal(t, 1, webhook.sendCount())
	assert.Zero(t, slack.sendCount())
}

func TestDispatchSummary_NoSettingsNoSends(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	d := newTestDispatcher(&fakeSettings{}, webhook)

	d.DispatchSummary(context.Background(), 1, SummaryEvent{
		Provider:    models.ProviderAWS,
		AccountName: "prod",
		Summary:     models.SeveritySummary{Critical: 2, Total: 2},
	})

	assert.Zero(t, webhook.sendCount())
}

func TestDispatchFindings_CapsFanOut(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: allOn("https://h/w"),
	}}
	d := newTestDispatcher(src, webhook)

	var findings []models.Finding
	for i := 0; i < MaxFindingAlerts+5; i++ {
		findings = append(findings, models.Finding{
			AuditID:  7,
			Severity: models.SeverityCritical,
			Title:    fmt.Sprintf("finding %d", i),
			Resource: "res",
		})
	}

	d.DispatchFindings(context.Background(), 1, models.ProviderAWS, "prod", findings)

	assert.Equal(t, MaxFindingAlerts, webhook.sendCount())
}

func TestDispatchFindings_SkipsUnalertableWithoutConsumingCap(t *testing.T) {
	webhook := &fakeChannel{name: "webhook"}
	src := &fakeSettings{settings: &models.NotificationSettings{
		UserID:  1,
		Webhook: allOn("https://h/w"),
	}}
	d := newTestDispatcher(src, webhook)

	findings := []models.Finding{
		{AuditID: 7, Severity: models.SeverityMedium, Title: "m", Resource: "r"},
		{AuditID: 7, Severity: models.SeverityLow, Title: "l", Resource: "r"},
		{AuditID: 7, Severity: models.SeverityCritical, Title: "c", Resource: "r"},
	}

	d.DispatchFindings(context.Background(), 1, models.ProviderGCP, "proj", findings)

	require.Equal(t, 1, webhook.sendCount())
	assert.Equal(t, "c", webhook.findings[0].Finding.Title)
}
