package usecase_test

import (
	"context"
	"sync"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	"admin-console/internal/shared/eventbus"

	"github.com/stretchr/testify/mock"
)

// mockRemote is a testify mock of repository.RemoteCollection.
type mockRemote[T model.Record] struct {
	mock.Mock
	resource string
}

func newMockRemote[T model.Record](resource string) *mockRemote[T] {
	return &mockRemote[T]{resource: resource}
}

func (m *mockRemote[T]) Resource() string { return m.resource }

func (m *mockRemote[T]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *mockRemote[T]) Get(ctx context.Context, id string) (T, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(T)
	return record, args.Error(1)
}

func (m *mockRemote[T]) Create(ctx context.Context, fields map[string]string) (T, error) {
	args := m.Called(ctx, fields)
	record, _ := args.Get(0).(T)
	return record, args.Error(1)
}

func (m *mockRemote[T]) Update(ctx context.Context, id string, fields map[string]string) (T, error) {
	args := m.Called(ctx, id, fields)
	record, _ := args.Get(0).(T)
	return record, args.Error(1)
}

func (m *mockRemote[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var (
	_ repository.RemoteCollection[model.User] = (*mockRemote[model.User])(nil)
	_ repository.RemoteCollection[model.Page] = (*mockRemote[model.Page])(nil)
)

// notificationRecorder collects notifications published on a bus.
type notificationRecorder struct {
	mu    sync.Mutex
	notes []model.Notification
}

func recordNotifications(bus *eventbus.EventBus) *notificationRecorder {
	r := &notificationRecorder{}
	bus.Subscribe(eventbus.EventTypeNotification, func(ctx context.Context, event eventbus.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.notes = append(r.notes, event.Data().(model.Notification))
		return nil
	})
	return r
}

func (r *notificationRecorder) all() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.notes...)
}

func (r *notificationRecorder) last() model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return model.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func ada() map[string]string {
	return map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "password1",
	}
}
