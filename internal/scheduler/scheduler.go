// Package scheduler runs the periodic sweep that triggers scheduled scans
// across all provider domains, records every attempt in the execution log,
// advances each account's next run time, and hands completed audits to the
// alert dispatcher.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/cloudscan/internal/metrics"
	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/notify"
	"github.com/crucial707/cloudscan/internal/scanner"
	"github.com/crucial707/cloudscan/internal/schedule"
)

// Store is the persistence surface the loop needs beyond the scan executor's.
type Store interface {
	ListDueAccounts(ctx context.Context, provider models.Provider, now time.Time) ([]models.CloudAccount, error)
	UpdateNextRunAt(ctx context.Context, provider models.Provider, id int, next time.Time) error
	AppendScanLog(ctx context.Context, e models.ScanLogEntry) error
	GetAudit(ctx context.Context, id int) (*models.Audit, error)
}

// Executor triggers one scan and reports the outcome as data.
type Executor interface {
	Execute(ctx context.Context, provider models.Provider, accountID int) scanner.ScanResult
}

// Alerter notifies the account owner about a completed audit.
type Alerter interface {
	DispatchSummary(ctx context.Context, userID int, ev notify.SummaryEvent)
}

// Scheduler drives the tick loop. Construct with New, then Start.
type Scheduler struct {
	store     Store
	executor  Executor
	alerter   Alerter
	interval  time.Duration
	opTimeout time.Duration
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// New returns a Scheduler ticking at the given interval. Every external call
// made while processing one account is bounded by opTimeout so a stuck store
// or endpoint cannot starve the tick.
func New(store Store, executor Executor, alerter Alerter, interval, opTimeout time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		executor:  executor,
		alerter:   alerter,
		interval:  interval,
		opTimeout: opTimeout,
		now:       time.Now,
	}
}

// Start begins ticking. Calling Start on a running scheduler is a no-op.
// Overrunning ticks are skipped rather than overlapped, so two sweeps never
// process the same account concurrently.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		slog.Warn("scheduler already started; ignoring second start")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	c.Start()

	s.cron = c
	s.started = true
	slog.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop cancels future ticks and waits for the in-flight tick, if any, to
// finish its current accounts.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	slog.Info("scheduler stopped")
}

// tick sweeps all provider domains once.
func (s *Scheduler) tick() {
	metrics.IncSchedulerTick()
	ctx := context.Background()
	for _, provider := range models.AllProviders {
		s.sweep(ctx, provider)
	}
}

func (s *Scheduler) sweep(ctx context.Context, provider models.Provider) {
	now := s.now().UTC()

	listCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	due, err := s.store.ListDueAccounts(listCtx, provider, now)
	cancel()
	if err != nil {
		slog.Error("list due accounts failed", "provider", provider, "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	metrics.IncDueAccounts(string(provider), len(due))
	slog.Info("processing due accounts", "provider", provider, "count", len(due))

	// Sequential within a tick: the same account can never be scanned twice
	// concurrently, and one slow account delays peers but never corrupts them.
	for i := range due {
		s.processAccount(ctx, due[i])
	}
}

// processAccount runs one due account through execute, log, advance, alert.
// Failures stay local to this account.
func (s *Scheduler) processAccount(ctx context.Context, account models.CloudAccount) {
	scheduledFor := s.now().UTC()
	if account.Schedule.NextRunAt != nil {
		scheduledFor = *account.Schedule.NextRunAt
	}

	execCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	result := s.executor.Execute(execCtx, account.Provider, account.ID)
	cancel()

	s.logAttempt(ctx, account, scheduledFor, result)

	// Advance from the current wall clock, not the missed due time: a delayed
	// tick must not leave the account due again on the very next sweep.
	s.advance(ctx, account)

	if result.Success {
		s.alertIfCompleted(ctx, account, result.AuditID)
	}
}

func (s *Scheduler) logAttempt(ctx context.Context, account models.CloudAccount, scheduledFor time.Time, result scanner.ScanResult) {
	entry := models.ScanLogEntry{
		Provider:     account.Provider,
		AccountID:    account.ID,
		UserID:       account.UserID,
		ScheduledFor: scheduledFor,
		ExecutedAt:   s.now().UTC(),
		Status:       models.ScanLogStatusSuccess,
		Error:        result.Error,
		DurationMs:   result.Duration.Milliseconds(),
	}
	if !result.Success {
		entry.Status = models.ScanLogStatusFailed
	}
	if result.AuditID > 0 {
		id := result.AuditID
		entry.AuditID = &id
	}

	logCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.store.AppendScanLog(logCtx, entry); err != nil {
		// Best-effort: a log write failure must never abort the tick.
		slog.Error("append scan log failed",
			"provider", account.Provider,
			"account_id", account.ID,
			"error", err)
	}
}

func (s *Scheduler) advance(ctx context.Context, account models.CloudAccount) {
	if !account.Schedule.Enabled {
		return
	}
	next := schedule.NextOccurrence(account.Schedule, s.now().UTC())

	updCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.store.UpdateNextRunAt(updCtx, account.Provider, account.ID, next); err != nil {
		slog.Error("update next_run_at failed",
			"provider", account.Provider,
			"account_id", account.ID,
			"error", err)
		return
	}
	slog.Debug("next run scheduled",
		"provider", account.Provider,
		"account_id", account.ID,
		"next_run_at", next)
}

// alertIfCompleted reads the audit back and dispatches its summary when the
// scan engine has already finished. Scans are fire-and-continue, so a still
// running audit simply produces no alert from this tick.
func (s *Scheduler) alertIfCompleted(ctx context.Context, account models.CloudAccount, auditID int) {
	readCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	audit, err := s.store.GetAudit(readCtx, auditID)
	cancel()
	if err != nil {
		slog.Error("read audit failed", "audit_id", auditID, "error", err)
		return
	}
	if audit == nil || audit.Status != models.AuditStatusCompleted {
		return
	}

	alertCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	s.alerter.DispatchSummary(alertCtx, account.UserID, notify.SummaryEvent{
		Provider:    account.Provider,
		AccountName: account.Name,
		Summary:     audit.Summary,
	})
}

// TriggerNow runs one scan immediately, bypassing the due-time check. The
// attempt is logged like a scheduled one but next_run_at is left untouched.
func (s *Scheduler) TriggerNow(ctx context.Context, provider models.Provider, accountID int) scanner.ScanResult {
	now := s.now().UTC()
	result := s.executor.Execute(ctx, provider, accountID)

	entry := models.ScanLogEntry{
		Provider:     provider,
		AccountID:    accountID,
		ScheduledFor: now,
		ExecutedAt:   s.now().UTC(),
		Status:       models.ScanLogStatusSuccess,
		Error:        result.Error,
		DurationMs:   result.Duration.Milliseconds(),
	}
	if !result.Success {
		entry.Status = models.ScanLogStatusFailed
	}
	if result.AuditID > 0 {
		id := result.AuditID
		entry.AuditID = &id
	}
	if result.Account != nil {
		entry.UserID = result.Account.UserID
	}

	if err := s.store.AppendScanLog(ctx, entry); err != nil {
		slog.Error("append scan log failed",
			"provider", provider,
			"account_id", accountID,
			"error", err)
	}
	return result
}
