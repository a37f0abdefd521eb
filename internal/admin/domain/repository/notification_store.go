package repository

import (
	"context"

	"admin-console/internal/admin/domain/model"
)

// NotificationStore keeps a bounded history of notifications so clients that
// connect late can catch up.
type NotificationStore interface {
	Append(ctx context.Context, n model.Notification) error
	// Recent returns up to limit notifications, oldest first.
	Recent(ctx context.Context, limit int) ([]model.Notification, error)
	Close() error
}
