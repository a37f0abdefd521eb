package usecase_test

import (
	"context"
	"errors"
	"testing"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/usecase"
	"admin-console/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) Append(ctx context.Context, n model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationStore) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, limit)
	notes, _ := args.Get(0).([]model.Notification)
	return notes, args.Error(1)
}

func (m *mockNotificationStore) Close() error {
	return m.Called().Error(0)
}

func TestNotificationHistory_RecordsPublishedNotifications(t *testing.T) {
	bus := eventbus.NewEventBus(nil)
	store := new(mockNotificationStore)
	history := usecase.NewNotificationHistory(store, bus, nil)

	store.On("Append", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
		return n.Message == "Page added successfully"
	})).Return(nil).Once()
	store.On("Append", mock.Anything, mock.Anything).Return(errors.New("store down")).Once()

	n := usecase.NewNotifier(bus, nil)
	n.Success(context.Background(), model.ResourcePage, model.OperationCreate, "p1", "Page added successfully")
	// A failing store does not fail the publisher.
	n.Success(context.Background(), model.ResourcePage, model.OperationDelete, "p1", "Page deleted successfully")

	store.On("Recent", mock.Anything, 5).Return([]model.Notification{{ID: "n1"}}, nil).Once()
	got, err := history.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	store.On("Close").Return(nil).Once()
	require.NoError(t, history.Close())
	assert.Equal(t, 0, bus.GetSubscriberCount(eventbus.EventTypeNotification))
	store.AssertExpectations(t)
}
