package analysis

import (
	"time"
)

// ID tipe untuk batch run
type RunID string

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the per-company outcome of one completion call. Analysis holds
// the parsed JSON value when the model returned valid JSON, otherwise the
// raw response text (and batch mode stores caught errors as "Error: <msg>").
type Result struct {
	Company   string `json:"company"`
	Analysis  any    `json:"analysis"`
	Timestamp string `json:"timestamp"`
}

// BatchOutput is the aggregate of one batch run. TotalCompanies always
// equals len(Results); records with unusable shapes produce no entry.
type BatchOutput struct {
	GeneratedAt    string   `json:"generated_at"`
	TotalCompanies int      `json:"total_companies"`
	Results        []Result `json:"results"`
}

// Aggregate Root: Run is the persisted history record of one batch run.
type Run struct {
	ID             RunID     `json:"id"`
	Username       string    `json:"username"`
	GeneratedAt    time.Time `json:"generated_at"`
	TotalCompanies int       `json:"total_companies"`
	Status         Status    `json:"status"`
	ArtifactURL    string    `json:"artifact_url,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	Output         string    `json:"output,omitempty"` // BatchOutput as JSON string
}
