// Package store bundles the SQL repositories behind the narrow interfaces the
// scan executor, scheduler loop, and alert dispatcher consume.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/repo"
)

// Store satisfies scanner.Store, scheduler.Store, and notify.SettingsSource.
type Store struct {
	Accounts *repo.AccountRepo
	Audits   *repo.AuditRepo
	ScanLog  *repo.ScanLogRepo
	Settings *repo.SettingsRepo
	Users    *repo.UserRepo
}

// New wires all repositories over one database handle.
func New(db *sql.DB) *Store {
	return &Store{
		Accounts: repo.NewAccountRepo(db),
		Audits:   repo.NewAuditRepo(db),
		ScanLog:  repo.NewScanLogRepo(db),
		Settings: repo.NewSettingsRepo(db),
		Users:    repo.NewUserRepo(db),
	}
}

func (s *Store) GetAccount(ctx context.Context, provider models.Provider, id int) (*models.CloudAccount, error) {
	return s.Accounts.GetByID(ctx, provider, id)
}

func (s *Store) CreateRunningAudit(ctx context.Context, provider models.Provider, accountID int) (int, error) {
	return s.Audits.CreateRunning(ctx, provider, accountID)
}

func (s *Store) UpdateLastScanAt(ctx context.Context, provider models.Provider, accountID int, at time.Time) error {
	return s.Accounts.UpdateLastScanAt(ctx, provider, accountID, at)
}

func (s *Store) ListDueAccounts(ctx context.Context, provider models.Provider, now time.Time) ([]models.CloudAccount, error) {
	return s.Accounts.ListDue(ctx, provider, now)
}

func (s *Store) UpdateNextRunAt(ctx context.Context, provider models.Provider, id int, next time.Time) error {
	return s.Accounts.UpdateNextRunAt(ctx, provider, id, next)
}

func (s *Store) AppendScanLog(ctx context.Context, e models.ScanLogEntry) error {
	return s.ScanLog.Append(ctx, e)
}

func (s *Store) GetAudit(ctx context.Context, id int) (*models.Audit, error) {
	return s.Audits.GetByID(ctx, id)
}

func (s *Store) GetUserNotificationSettings(ctx context.Context, userID int) (*models.NotificationSettings, error) {
	return s.Settings.GetByUserID(ctx, userID)
}

func (s *Store) GetUserEmail(ctx context.Context, userID int) (string, error) {
	return s.Users.GetEmail(ctx, userID)
}
