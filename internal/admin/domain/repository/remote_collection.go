package repository

import (
	"context"

	"admin-console/internal/admin/domain/model"
)

// RemoteCollection is the REST collection a section mirrors. Implementations
// return *errors.AppError values: NOT_FOUND_ERROR for a missing record and
// REMOTE_ERROR for every other remote or transport failure.
type RemoteCollection[T model.Record] interface {
	// Resource is the collection name used in request paths.
	Resource() string
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	// Create sends the draft fields and returns the record as stored remotely,
	// including its assigned identifier.
	Create(ctx context.Context, fields map[string]string) (T, error)
	Update(ctx context.Context, id string, fields map[string]string) (T, error)
	Delete(ctx context.Context, id string) error
}
