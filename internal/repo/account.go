package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/cloudscan/internal/models"
)

const accountColumns = `id, provider, user_id, name, external_id, is_active, last_scan_at,
		schedule_enabled, frequency, hour_utc, day_of_week, day_of_month, next_run_at, created_at`

// AccountRepo persists cloud accounts. All three provider domains share one
// table with a provider discriminator, so the scheduler runs the same code
// path per provider.
type AccountRepo struct {
	DB *sql.DB
}

// NewAccountRepo returns a new AccountRepo.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.CloudAccount, error) {
	a := &models.CloudAccount{}
	var lastScan, nextRun sql.NullTime
	var dow, dom sql.NullInt64
	err := row.Scan(
		&a.ID, &a.Provider, &a.UserID, &a.Name, &a.ExternalID, &a.IsActive, &lastScan,
		&a.Schedule.Enabled, &a.Schedule.Frequency, &a.Schedule.HourUTC, &dow, &dom, &nextRun, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastScan.Valid {
		a.LastScanAt = &lastScan.Time
	}
	if nextRun.Valid {
		t := nextRun.Time.UTC()
		a.Schedule.NextRunAt = &t
	}
	if dow.Valid {
		n := int(dow.Int64)
		a.Schedule.DayOfWeek = &n
	}
	if dom.Valid {
		n := int(dom.Int64)
		a.Schedule.DayOfMonth = &n
	}
	return a, nil
}

// ListDue returns active accounts of one provider whose schedule is enabled
// and whose next_run_at is at or before now, ordered oldest due first.
func (r *AccountRepo) ListDue(ctx context.Context, provider models.Provider, now time.Time) ([]models.CloudAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM cloud_accounts
		WHERE provider = $1 AND is_active = true AND schedule_enabled = true
		  AND next_run_at IS NOT NULL AND next_run_at <= $2
		ORDER BY next_run_at
	`
	rows, err := r.DB.QueryContext(ctx, query, provider, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.CloudAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// GetByID returns one account by provider and id, or nil if not found.
func (r *AccountRepo) GetByID(ctx context.Context, provider models.Provider, id int) (*models.CloudAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM cloud_accounts
		WHERE provider = $1 AND id = $2
	`
	a, err := scanAccount(r.DB.QueryRowContext(ctx, query, provider, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Count returns the total number of accounts.
func (r *AccountRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM cloud_accounts").Scan(&n)
	return n, err
}

// List returns accounts across all providers, most recent first.
func (r *AccountRepo) List(ctx context.Context, limit, offset int) ([]models.CloudAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM cloud_accounts
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.CloudAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Create inserts a new account and returns it with id and created_at set.
func (r *AccountRepo) Create(ctx context.Context, a models.CloudAccount) (*models.CloudAccount, error) {
	query := `
		INSERT INTO cloud_accounts
			(provider, user_id, name, external_id, is_active,
			 schedule_enabled, frequency, hour_utc, day_of_week, day_of_month, next_run_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + accountColumns + `
	`
	row := r.DB.QueryRowContext(ctx, query,
		a.Provider, a.UserID, a.Name, a.ExternalID, a.IsActive,
		a.Schedule.Enabled, a.Schedule.Frequency, a.Schedule.HourUTC,
		nullInt(a.Schedule.DayOfWeek), nullInt(a.Schedule.DayOfMonth), nullTime(a.Schedule.NextRunAt),
	)
	return scanAccount(row)
}

// UpdateSchedule replaces an account's schedule, including the recomputed next_run_at.
func (r *AccountRepo) UpdateSchedule(ctx context.Context, provider models.Provider, id int, spec models.ScheduleSpec) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE cloud_accounts
		SET schedule_enabled = $1, frequency = $2, hour_utc = $3,
		    day_of_week = $4, day_of_month = $5, next_run_at = $6
		WHERE provider = $7 AND id = $8`,
		spec.Enabled, spec.Frequency, spec.HourUTC,
		nullInt(spec.DayOfWeek), nullInt(spec.DayOfMonth), nullTime(spec.NextRunAt),
		provider, id,
	)
	return err
}

// UpdateNextRunAt persists the next due time computed by the scheduler.
func (r *AccountRepo) UpdateNextRunAt(ctx context.Context, provider models.Provider, id int, next time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE cloud_accounts SET next_run_at = $1 WHERE provider = $2 AND id = $3`,
		next, provider, id,
	)
	return err
}

// UpdateLastScanAt stamps the time a scan was last triggered for the account.
func (r *AccountRepo) UpdateLastScanAt(ctx context.Context, provider models.Provider, id int, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE cloud_accounts SET last_scan_at = $1 WHERE provider = $2 AND id = $3`,
		at, provider, id,
	)
	return err
}

// Delete removes an account.
func (r *AccountRepo) Delete(ctx context.Context, provider models.Provider, id int) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM cloud_accounts WHERE provider = $1 AND id = $2`, provider, id)
	return err
}

func nullInt(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
