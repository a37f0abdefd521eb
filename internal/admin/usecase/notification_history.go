package usecase

import (
	"context"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	"admin-console/internal/shared/eventbus"
	"admin-console/internal/shared/logger"
)

// NotificationHistory records every notification published on the bus into a
// NotificationStore.
type NotificationHistory struct {
	store repository.NotificationStore
	bus   eventbus.EventBusInterface
	sub   eventbus.Subscription
	log   logger.Logger
}

// NewNotificationHistory subscribes store to the bus's notification events.
func NewNotificationHistory(store repository.NotificationStore, bus eventbus.EventBusInterface, log logger.Logger) *NotificationHistory {
	if log == nil {
		log = logger.NewNopLogger()
	}
	h := &NotificationHistory{store: store, bus: bus, log: log.WithComponent("notification_history")}
	h.sub = bus.Subscribe(eventbus.EventTypeNotification, h.record)
	return h
}

func (h *NotificationHistory) record(ctx context.Context, event eventbus.Event) error {
	n, ok := event.Data().(model.Notification)
	if !ok {
		return nil
	}
	if err := h.store.Append(ctx, n); err != nil {
		// History is best effort; the live notification was already delivered.
		h.log.Warnf("Failed to record notification %s: %v", n.ID, err)
	}
	return nil
}

// Recent returns up to limit stored notifications, oldest first.
func (h *NotificationHistory) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	return h.store.Recent(ctx, limit)
}

// Close unsubscribes and closes the store.
func (h *NotificationHistory) Close() error {
	h.bus.Unsubscribe(h.sub)
	return h.store.Close()
}
