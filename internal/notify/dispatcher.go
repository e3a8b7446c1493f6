package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/crucial707/cloudscan/internal/metrics"
	"github.com/crucial707/cloudscan/internal/models"
)

// MaxFindingAlerts caps finding-level notifications per audit so a bad scan
// cannot storm the channels.
const MaxFindingAlerts = 10

// Dispatcher applies a user's notification settings to scan events and sends
// to every eligible channel. Channel failures are independent: one failing
// send never blocks the others.
type Dispatcher struct {
	settings SettingsSource
	channels []Channel

	// One limiter per channel paces consecutive sends on the same transport
	// (third-party webhook and mail endpoints rate-limit aggressively).
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	pace     rate.Limit
}

// NewDispatcher returns a Dispatcher over the given channels. Channels are
// matched to settings by Name: "webhook", "slack", "email".
func NewDispatcher(settings SettingsSource, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		channels: channels,
		limiters: make(map[string]*rate.Limiter),
		pace:     rate.Every(time.Second),
	}
}

type delivery struct {
	ch   Channel
	dest string
}

// DispatchSummary notifies every eligible channel about a completed audit.
// All-clear summaries (no critical, no high) are never dispatched.
func (d *Dispatcher) DispatchSummary(ctx context.Context, userID int, ev SummaryEvent) {
	if !ev.Summary.HasAlertable() {
		return
	}

	targets := d.eligible(ctx, userID, func(c models.ChannelSettings) bool {
		return (ev.Summary.Critical > 0 && c.AlertOnCritical) ||
			(ev.Summary.High > 0 && c.AlertOnHigh)
	})
	d.fanOut(ctx, targets, func(ch Channel, dest string) error {
		return ch.SendSummary(ctx, dest, ev)
	})
}

// DispatchFinding notifies every eligible channel about a single finding.
// Medium and low findings are dropped regardless of settings.
func (d *Dispatcher) DispatchFinding(ctx context.Context, userID int, ev FindingEvent) {
	if !ev.Finding.Severity.Alertable() {
		return
	}

	targets := d.eligible(ctx, userID, func(c models.ChannelSettings) bool {
		return c.WantsSeverity(ev.Finding.Severity)
	})
	d.fanOut(ctx, targets, func(ch Channel, dest string) error {
		return ch.SendFinding(ctx, dest, ev)
	})
}

// DispatchFindings sends finding-level alerts for an audit's findings,
// reading settings once and capping the fan-out at MaxFindingAlerts.
func (d *Dispatcher) DispatchFindings(ctx context.Context, userID int, provider models.Provider, accountName string, findings []models.Finding) {
	settings, err := d.loadSettings(ctx, userID)
	if settings == nil || err != nil {
		return
	}

	sent := 0
	for _, f := range findings {
		if !f.Severity.Alertable() {
			continue
		}
		if sent >= MaxFindingAlerts {
			slog.Info("finding alert cap reached",
				"user_id", userID,
				"audit_id", f.AuditID,
				"cap", MaxFindingAlerts)
			return
		}
		ev := FindingEvent{Provider: provider, AccountName: accountName, Finding: f}
		targets := d.pick(ctx, userID, settings, func(c models.ChannelSettings) bool {
			return c.WantsSeverity(f.Severity)
		})
		if len(targets) == 0 {
			continue
		}
		d.fanOut(ctx, targets, func(ch Channel, dest string) error {
			return ch.SendFinding(ctx, dest, ev)
		})
		sent++
	}
}

func (d *Dispatcher) loadSettings(ctx context.Context, userID int) (*models.NotificationSettings, error) {
	settings, err := d.settings.GetUserNotificationSettings(ctx, userID)
	if err != nil {
		slog.Warn("load notification settings failed", "user_id", userID, "error", err)
		return nil, err
	}
	return settings, nil
}

func (d *Dispatcher) eligible(ctx context.Context, userID int, admit func(models.ChannelSettings) bool) []delivery {
	settings, err := d.loadSettings(ctx, userID)
	if settings == nil || err != nil {
		return nil
	}
	return d.pick(ctx, userID, settings, admit)
}

// pick resolves the eligible (channel, destination) pairs for one event. The
// email channel falls back to the user's account email; webhook channels are
// ineligible without a configured URL.
func (d *Dispatcher) pick(ctx context.Context, userID int, settings *models.NotificationSettings, admit func(models.ChannelSettings) bool) []delivery {
	var out []delivery
	for _, ch := range d.channels {
		var cfg models.ChannelSettings
		switch ch.Name() {
		case "webhook":
			cfg = settings.Webhook
		case "slack":
			cfg = settings.Slack
		case "email":
			cfg = settings.Email
		default:
			continue
		}
		if !cfg.Enabled || !admit(cfg) {
			continue
		}

		dest := cfg.Destination
		if dest == "" && ch.Name() == "email" {
			email, err := d.settings.GetUserEmail(ctx, userID)
			if err != nil {
				slog.Warn("resolve fallback email failed", "user_id", userID, "error", err)
				continue
			}
			dest = email
		}
		if dest == "" {
			continue
		}
		out = append(out, delivery{ch: ch, dest: dest})
	}
	return out
}

// fanOut sends to all targets concurrently and joins before returning.
func (d *Dispatcher) fanOut(ctx context.Context, targets []delivery, send func(Channel, string) error) {
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t delivery) {
			defer wg.Done()
			if err := d.limiter(t.ch.Name()).Wait(ctx); err != nil {
				metrics.IncNotification(t.ch.Name(), "skipped")
				return
			}
			if err := send(t.ch, t.dest); err != nil {
				slog.Warn("notification send failed",
					"channel", t.ch.Name(),
					"error", err)
				metrics.IncNotification(t.ch.Name(), "failed")
				return
			}
			metrics.IncNotification(t.ch.Name(), "sent")
		}(t)
	}
	wg.Wait()
}

func (d *Dispatcher) limiter(channel string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	lim, ok := d.limiters[channel]
	if !ok {
		lim = rate.NewLimiter(d.pace, 1)
		d.limiters[channel] = lim
	}
	return lim
}
