package validation

import (
	"errors"
	"time"
)

// ErrMissingInputs: all three JSON documents must be present before a
// validation run is attempted.
var ErrMissingInputs = errors.New("please load all three JSON documents before running validation")

// ReportID identifier type
type ReportID string

// Summary describes one of the three validation inputs. Count and
// TotalCompanies hold "N/A" when the document has an unexpected shape,
// matching the downloadable report format.
type Summary struct {
	Type           string `json:"type"`
	Count          any    `json:"count,omitempty"`
	TotalCompanies any    `json:"total_companies,omitempty"`
}

// Report is the downloadable validation report envelope. ValidationAnalysis
// is opaque to the rest of the system: the normalizer parses JSON but never
// interprets keys, so both known template shapes pass through untouched.
type Report struct {
	ValidationTimestamp string  `json:"validation_timestamp"`
	InputSummary        Summary `json:"input_summary"`
	ExpectedSummary     Summary `json:"expected_summary"`
	ActualSummary       Summary `json:"actual_summary"`
	ValidationAnalysis  any     `json:"validation_analysis"`
}

// StoredReport is the persisted history record of one validation run.
type StoredReport struct {
	ID          ReportID  `json:"id"`
	Username    string    `json:"username"`
	RunID       string    `json:"run_id,omitempty"`
	Report      string    `json:"report"` // Report as JSON string
	ArtifactURL string    `json:"artifact_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
