package validation

import "context"

// Repository port for persisting and querying validation reports
type Repository interface {
	Save(ctx context.Context, r *StoredReport) error
	Paginate(ctx context.Context, username string, page, pageSize int) ([]*StoredReport, error)
}
