package analysis

import "errors"

// Validation errors: the operation is rejected before any API call is made.
var (
	ErrMissingCompanyName = errors.New("please enter a company name")
	ErrMissingAPIKey      = errors.New("openai api key is not configured")
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
