package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/company-analyst/internal/domain/validation"
)

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

// Save inserts a validation report record
func (r *ReportRepository) Save(ctx context.Context, rep *domain.StoredReport) error {
	const q = `
INSERT INTO validation_reports
  (id, username, run_id, report_json, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  username = EXCLUDED.username,
  run_id = EXCLUDED.run_id,
  report_json = EXCLUDED.report_json,
  artifact_url = EXCLUDED.artifact_url;`

	username := stringOrDash(rep.Username)
	report := rep.Report
	if strings.TrimSpace(report) == "" {
		report = "{}"
	}
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, rep.ID, username, rep.RunID, report, rep.ArtifactURL, createdAt)
	return err
}

// Paginate returns a page of validation reports ordered by created_at desc
func (r *ReportRepository) Paginate(ctx context.Context, username string, page, pageSize int) ([]*domain.StoredReport, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, username, run_id, report_json, artifact_url, created_at
FROM validation_reports
WHERE username=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, username, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.StoredReport
	for rows.Next() {
		var rep domain.StoredReport
		var created time.Time
		if err := rows.Scan(&rep.ID, &rep.Username, &rep.RunID, &rep.Report, &rep.ArtifactURL, &created); err != nil {
			return nil, err
		}
		rep.CreatedAt = created
		out = append(out, &rep)
	}
	return out, rows.Err()
}
