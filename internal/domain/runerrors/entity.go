package runerrors

import "time"

// RunError represents a persisted per-item batch error entry
type RunError struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	RunID       string    `json:"run_id"`
	Company     string    `json:"company,omitempty"`
	Phase       string    `json:"phase,omitempty"` // batch | validation | other
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
