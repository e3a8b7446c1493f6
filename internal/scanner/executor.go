package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/cloudscan/internal/metrics"
	"github.com/crucial707/cloudscan/internal/models"
)

// Store is the slice of persistence the executor needs. The store package
// satisfies it over the SQL repositories.
type Store interface {
	GetAccount(ctx context.Context, provider models.Provider, id int) (*models.CloudAccount, error)
	CreateRunningAudit(ctx context.Context, provider models.Provider, accountID int) (int, error)
	UpdateLastScanAt(ctx context.Context, provider models.Provider, accountID int, at time.Time) error
}

// ScanResult is the outcome of triggering one scan. Failures are carried as
// data rather than errors so the scheduler can log every attempt uniformly.
type ScanResult struct {
	Success  bool
	AuditID  int
	Error    string
	Duration time.Duration

	// Account is the resolved account, nil when it could not be found.
	// Saves the scheduler a second lookup for logging and alerting.
	Account *models.CloudAccount
}

// Executor triggers scans: it creates the running audit shell and stamps the
// account's last scan time. The actual finding collection is the scan
// engine's job and is not awaited here.
type Executor struct {
	store Store
	now   func() time.Time
}

// New returns an Executor backed by the given store.
func New(store Store) *Executor {
	return &Executor{store: store, now: time.Now}
}

// Execute triggers a scan for one account. Exactly one audit row is created
// per successful call; callers must not invoke it twice for the same due
// occurrence.
func (e *Executor) Execute(ctx context.Context, provider models.Provider, accountID int) ScanResult {
	start := e.now().UTC()

	account, err := e.store.GetAccount(ctx, provider, accountID)
	if err != nil {
		return e.fail(provider, accountID, start, nil, "load account: "+err.Error())
	}
	if account == nil {
		return e.fail(provider, accountID, start, nil, "account not found")
	}

	auditID, err := e.store.CreateRunningAudit(ctx, provider, accountID)
	if err != nil {
		return e.fail(provider, accountID, start, account, "create audit: "+err.Error())
	}

	if err := e.store.UpdateLastScanAt(ctx, provider, accountID, start); err != nil {
		res := e.fail(provider, accountID, start, account, "update last_scan_at: "+err.Error())
		res.AuditID = auditID
		return res
	}

	slog.Info("scan triggered",
		"provider", provider,
		"account_id", accountID,
		"audit_id", auditID)
	metrics.IncScansTriggered(string(provider), "success")

	return ScanResult{
		Success:  true,
		AuditID:  auditID,
		Duration: e.now().UTC().Sub(start),
		Account:  account,
	}
}

func (e *Executor) fail(provider models.Provider, accountID int, start time.Time, account *models.CloudAccount, msg string) ScanResult {
	slog.Warn("scan trigger failed",
		"provider", provider,
		"account_id", accountID,
		"error", msg)
	metrics.IncScansTriggered(string(provider), "failed")
	return ScanResult{
		Error:    msg,
		Duration: e.now().UTC().Sub(start),
		Account:  account,
	}
}
