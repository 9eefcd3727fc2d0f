package analysis

import "context"

// CompletionRequest is one chat completion round trip.
type CompletionRequest struct {
	Model         string
	MaxTokens     int
	Temperature   float32
	SystemMessage string
	UserMessage   string
}

// Completer port (interface untuk chat completion API)
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Repository port (interface untuk run history persistence)
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, username string, id RunID) (*Run, error)
	Latest(ctx context.Context, username string, limit int) ([]*Run, error)
}

// ArtifactStore port (interface untuk downloadable JSON artifacts)
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, data []byte) (string, error)
}
