package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/cloudscan/internal/models"
)

// AuditRepo persists scan audits.
type AuditRepo struct {
	DB *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db}
}

// CreateRunning inserts the shell audit row for a newly triggered scan and
// returns its id. The scan engine fills in status and severity counts later.
func (r *AuditRepo) CreateRunning(ctx context.Context, provider models.Provider, accountID int) (int, error) {
	var id int
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO audits (provider, account_id, status) VALUES ($1, $2, 'running') RETURNING id`,
		provider, accountID,
	).Scan(&id)
	return id, err
}

// GetByID returns one audit by id, or nil if not found.
func (r *AuditRepo) GetByID(ctx context.Context, id int) (*models.Audit, error) {
	a := &models.Audit{}
	var completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, provider, account_id, status,
		       critical_count, high_count, medium_count, low_count, total_count,
		       started_at, completed_at
		FROM audits WHERE id = $1`,
		id,
	).Scan(
		&a.ID, &a.Provider, &a.AccountID, &a.Status,
		&a.Summary.Critical, &a.Summary.High, &a.Summary.Medium, &a.Summary.Low, &a.Summary.Total,
		&a.StartedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

// ListByAccount returns recent audits for one account, newest first.
func (r *AuditRepo) ListByAccount(ctx context.Context, provider models.Provider, accountID, limit int) ([]models.Audit, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, provider, account_id, status,
		       critical_count, high_count, medium_count, low_count, total_count,
		       started_at, completed_at
		FROM audits
		WHERE provider = $1 AND account_id = $2
		ORDER BY id DESC
		LIMIT $3`,
		provider, accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Audit
	for rows.Next() {
		var a models.Audit
		var completedAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.Provider, &a.AccountID, &a.Status,
			&a.Summary.Critical, &a.Summary.High, &a.Summary.Medium, &a.Summary.Low, &a.Summary.Total,
			&a.StartedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			a.CompletedAt = &completedAt.Time
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListCriticalHighFindings returns the critical and high findings of an audit,
// most severe first, capped at limit. Used for per-finding alert fan-out.
func (r *AuditRepo) ListCriticalHighFindings(ctx context.Context, auditID, limit int) ([]models.Finding, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, audit_id, severity, title, COALESCE(description,''),
		       resource, COALESCE(resource_type,''), COALESCE(region,''), COALESCE(recommendation,'')
		FROM findings
		WHERE audit_id = $1 AND severity IN ('critical', 'high')
		ORDER BY CASE severity WHEN 'critical' THEN 0 ELSE 1 END, id
		LIMIT $2`,
		auditID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Finding
	for rows.Next() {
		var f models.Finding
		if err := rows.Scan(
			&f.ID, &f.AuditID, &f.Severity, &f.Title, &f.Description,
			&f.Resource, &f.ResourceType, &f.Region, &f.Recommendation,
		); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}
