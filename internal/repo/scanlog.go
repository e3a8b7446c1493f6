package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/cloudscan/internal/models"
)

// ScanLogRepo persists the scheduled scan execution log. The log is
// append-only; rows are never updated or deleted.
type ScanLogRepo struct {
	DB *sql.DB
}

// NewScanLogRepo returns a new ScanLogRepo.
func NewScanLogRepo(db *sql.DB) *ScanLogRepo {
	return &ScanLogRepo{DB: db}
}

// Append records one scheduler attempt.
func (r *ScanLogRepo) Append(ctx context.Context, e models.ScanLogEntry) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO scheduled_scan_log
			(provider, account_id, user_id, scheduled_for, executed_at, status, audit_id, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.Provider, e.AccountID, e.UserID, e.ScheduledFor, e.ExecutedAt,
		e.Status, nullInt(e.AuditID), nullStr(e.Error), e.DurationMs,
	)
	return err
}

// Count returns the total number of log entries.
func (r *ScanLogRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM scheduled_scan_log").Scan(&n)
	return n, err
}

// List returns recent log entries, newest first.
func (r *ScanLogRepo) List(ctx context.Context, limit, offset int) ([]models.ScanLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, provider, account_id, user_id, scheduled_for, executed_at,
		       status, audit_id, COALESCE(error,''), duration_ms
		FROM scheduled_scan_log
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ScanLogEntry
	for rows.Next() {
		var e models.ScanLogEntry
		var auditID sql.NullInt64
		if err := rows.Scan(
			&e.ID, &e.Provider, &e.AccountID, &e.UserID, &e.ScheduledFor, &e.ExecutedAt,
			&e.Status, &auditID, &e.Error, &e.DurationMs,
		); err != nil {
			return nil, err
		}
		if auditID.Valid {
			n := int(auditID.Int64)
			e.AuditID = &n
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
