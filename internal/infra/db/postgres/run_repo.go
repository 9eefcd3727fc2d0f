package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/company-analyst/internal/domain/analysis"
)

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

// Save insert/update batch run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
  (id, username, generated_at, total_companies, status, artifact_url, duration_ms, output_json)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  total_companies = EXCLUDED.total_companies,
  artifact_url = EXCLUDED.artifact_url,
  duration_ms = EXCLUDED.duration_ms,
  output_json = EXCLUDED.output_json;`

	username := stringOrDash(run.Username)
	status := stringOrDash(string(run.Status))
	output := run.Output
	if strings.TrimSpace(output) == "" {
		output = "{}"
	}
	generated := run.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		run.ID, username, generated, run.TotalCompanies, status,
		run.ArtifactURL, run.DurationMS, output,
	)
	return err
}

// Get by ID + username
func (r *RunRepository) Get(ctx context.Context, username string, id domain.RunID) (*domain.Run, error) {
	const q = `
SELECT id, username, generated_at, total_companies, status, artifact_url, duration_ms, output_json
FROM analysis_runs
WHERE username=$1 AND id=$2 LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, username, id)

	var run domain.Run
	if err := row.Scan(
		&run.ID, &run.Username, &run.GeneratedAt, &run.TotalCompanies, &run.Status,
		&run.ArtifactURL, &run.DurationMS, &run.Output,
	); err != nil {
		return nil, err
	}
	return &run, nil
}

// Latest runs per user
func (r *RunRepository) Latest(ctx context.Context, username string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, username, generated_at, total_companies, status, artifact_url, duration_ms, output_json
FROM analysis_runs
WHERE username=$1 ORDER BY generated_at DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID, &run.Username, &run.GeneratedAt, &run.TotalCompanies, &run.Status,
			&run.ArtifactURL, &run.DurationMS, &run.Output,
		); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}
