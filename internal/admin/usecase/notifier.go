package usecase

import (
	"context"
	"time"

	"admin-console/internal/admin/domain/model"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/eventbus"
	"admin-console/internal/shared/logger"

	"github.com/google/uuid"
)

// RecordChange is the payload of record.saved and record.deleted events.
type RecordChange struct {
	Resource  string          `json:"resource"`
	RecordID  string          `json:"recordId"`
	Operation model.Operation `json:"operation"`
}

// Notifier turns controller outcomes into notification events on the bus.
type Notifier struct {
	bus eventbus.EventBusInterface
	log logger.Logger
	now func() time.Time
}

// NewNotifier creates a Notifier. A nil bus makes every call a log-only no-op.
func NewNotifier(bus eventbus.EventBusInterface, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Notifier{bus: bus, log: log.WithComponent("notifier"), now: time.Now}
}

// Success publishes a success notification.
func (n *Notifier) Success(ctx context.Context, resource string, op model.Operation, recordID, message string) {
	n.publish(ctx, model.Notification{
		Resource:  resource,
		Kind:      model.NotificationSuccess,
		Operation: op,
		RecordID:  recordID,
		Message:   message,
	})
}

// Failure publishes an error notification carrying the error's message verbatim.
func (n *Notifier) Failure(ctx context.Context, resource string, op model.Operation, recordID string, err error) {
	n.publish(ctx, model.Notification{
		Resource:  resource,
		Kind:      model.NotificationError,
		Operation: op,
		RecordID:  recordID,
		Message:   apperrors.Message(err),
	})
}

func (n *Notifier) publish(ctx context.Context, note model.Notification) {
	note.ID = uuid.NewString()
	note.Timestamp = n.now().UTC()

	n.log.WithFields(map[string]interface{}{
		"resource":  note.Resource,
		"kind":      string(note.Kind),
		"operation": string(note.Operation),
		"record_id": note.RecordID,
	}).Info(note.Message)

	if n.bus == nil {
		return
	}
	if err := n.bus.Publish(ctx, eventbus.NewBasicEventWithSource(eventbus.EventTypeNotification, note, note.Resource)); err != nil {
		n.log.Warnf("Failed to deliver notification %s: %v", note.ID, err)
	}
}

func publishChange(ctx context.Context, bus eventbus.EventBusInterface, log logger.Logger, eventType string, change RecordChange) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, eventbus.NewBasicEventWithSource(eventType, change, change.Resource)); err != nil {
		log.Warnf("Failed to deliver %s for %s/%s: %v", eventType, change.Resource, change.RecordID, err)
	}
}
