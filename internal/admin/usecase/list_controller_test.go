package usecase_test

import (
	"context"
	"errors"
	"testing"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/usecase"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ListControllerTestSuite struct {
	suite.Suite
	bus    *eventbus.EventBus
	remote *mockRemote[model.User]
	notes  *notificationRecorder
	list   *usecase.CollectionListController[model.User]
	ctx    context.Context
	seed   []model.User
}

func (s *ListControllerTestSuite) SetupTest() {
	s.bus = eventbus.NewEventBus(nil)
	s.remote = newMockRemote[model.User](model.ResourceUser)
	s.notes = recordNotifications(s.bus)
	s.list = usecase.NewCollectionListController[model.User](s.remote, "User", s.bus, nil, usecase.ListOptions{})
	s.ctx = context.Background()
	s.seed = []model.User{
		{ID: "u1", FirstName: "Ada"},
		{ID: "u2", FirstName: "Grace"},
		{ID: "u3", FirstName: "Edsger"},
	}
}

func (s *ListControllerTestSuite) TearDownTest() {
	s.list.Close()
}

func (s *ListControllerTestSuite) load() {
	s.remote.On("List", mock.Anything).Return(s.seed, nil).Once()
	_, err := s.list.Refresh(s.ctx)
	s.Require().NoError(err)
}

func (s *ListControllerTestSuite) TestRefreshReplacesList() {
	s.load()
	state := s.list.State()
	s.Equal(s.seed, state.Records)
	s.False(state.Loading)
	s.Empty(state.Error)

	s.remote.On("List", mock.Anything).Return([]model.User{{ID: "u9"}}, nil).Once()
	_, err := s.list.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.User{{ID: "u9"}}, s.list.Records())
}

func (s *ListControllerTestSuite) TestRefreshFailurePreservesListByDefault() {
	s.load()
	s.remote.On("List", mock.Anything).Return(nil, apperrors.NewRemoteError("Request failed with status code 500", 500)).Once()

	_, err := s.list.Refresh(s.ctx)
	s.Error(err)

	state := s.list.State()
	s.Equal(s.seed, state.Records)
	s.Equal("Request failed with status code 500", state.Error)
	s.False(state.Loading)
	s.Equal(model.OperationFetch, s.notes.last().Operation)
}

func (s *ListControllerTestSuite) TestRefreshFailureClearsWhenConfigured() {
	s.list.Close()
	s.list = usecase.NewCollectionListController[model.User](s.remote, "User", s.bus, nil, usecase.ListOptions{ClearOnFetchError: true})
	s.load()

	s.remote.On("List", mock.Anything).Return(nil, errors.New("Network Error")).Once()
	_, err := s.list.Refresh(s.ctx)
	s.Error(err)
	s.Empty(s.list.State().Records)
	s.Equal("Network Error", s.list.State().Error)
}

func (s *ListControllerTestSuite) TestConfirmDeleteRemovesExactlyOne() {
	s.load()
	s.remote.On("Delete", mock.Anything, "u2").Return(nil).Once()

	s.Require().NoError(s.list.RequestDelete("u2"))
	s.Equal("u2", s.list.State().PendingDelete)
	s.Require().NoError(s.list.ConfirmDelete(s.ctx, "u2"))

	state := s.list.State()
	s.Len(state.Records, len(s.seed)-1)
	for _, u := range state.Records {
		s.NotEqual("u2", u.ID)
	}
	s.Empty(state.PendingDelete)
	s.Empty(state.Deleting)
	s.False(state.Loading)

	last := s.notes.last()
	s.Equal(model.NotificationSuccess, last.Kind)
	s.Equal("User deleted successfully", last.Message)

	// The confirmation was consumed.
	s.ErrorIs(s.list.ConfirmDelete(s.ctx, "u2"), apperrors.ErrNoPendingDelete)
	s.remote.AssertNumberOfCalls(s.T(), "Delete", 1)
}

func (s *ListControllerTestSuite) TestCancelDeleteIssuesNoRequest() {
	s.load()
	s.Require().NoError(s.list.RequestDelete("u2"))
	s.list.CancelDelete()

	s.Equal(s.seed, s.list.Records())
	s.Empty(s.list.State().PendingDelete)
	s.ErrorIs(s.list.ConfirmDelete(s.ctx, "u2"), apperrors.ErrNoPendingDelete)
	s.remote.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func (s *ListControllerTestSuite) TestConfirmMustMatchPendingRecord() {
	s.load()
	s.Require().NoError(s.list.RequestDelete("u1"))
	s.Require().NoError(s.list.RequestDelete("u3"))
	s.Equal("u3", s.list.State().PendingDelete)

	s.ErrorIs(s.list.ConfirmDelete(s.ctx, "u1"), apperrors.ErrNoPendingDelete)
	s.remote.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
	s.ErrorIs(s.list.RequestDelete(""), apperrors.ErrInvalidInput)
}

func (s *ListControllerTestSuite) TestDeleteFailureLeavesListIntact() {
	s.load()
	s.remote.On("Delete", mock.Anything, "u1").Return(apperrors.NewRemoteError("Request failed with status code 403", 403)).Once()

	s.Require().NoError(s.list.RequestDelete("u1"))
	err := s.list.ConfirmDelete(s.ctx, "u1")
	s.True(apperrors.IsRemote(err))

	state := s.list.State()
	s.Equal(s.seed, state.Records)
	s.Equal("Request failed with status code 403", state.Error)
	s.False(state.Loading)
	s.Empty(state.Deleting)
	s.Equal(model.NotificationError, s.notes.last().Kind)
}

func (s *ListControllerTestSuite) TestDeleteOfRecordAlreadyGoneIsIdempotent() {
	s.load()
	s.remote.On("Delete", mock.Anything, "u7").Return(nil).Once()
	s.Require().NoError(s.list.RequestDelete("u7"))
	s.Require().NoError(s.list.ConfirmDelete(s.ctx, "u7"))
	s.Equal(s.seed, s.list.Records())
}

func (s *ListControllerTestSuite) TestSavedEventTriggersRefreshForOwnResourceOnly() {
	s.remote.On("List", mock.Anything).Return(s.seed, nil).Once()

	err := s.bus.Publish(s.ctx, eventbus.NewBasicEvent(eventbus.EventTypeRecordSaved,
		usecase.RecordChange{Resource: model.ResourcePage, RecordID: "p1", Operation: model.OperationCreate}))
	s.Require().NoError(err)
	s.remote.AssertNotCalled(s.T(), "List", mock.Anything)

	err = s.bus.Publish(s.ctx, eventbus.NewBasicEvent(eventbus.EventTypeRecordSaved,
		usecase.RecordChange{Resource: model.ResourceUser, RecordID: "u4", Operation: model.OperationCreate}))
	s.Require().NoError(err)
	s.Equal(s.seed, s.list.Records())
}

func (s *ListControllerTestSuite) TestCloseUnsubscribesAndRejectsOperations() {
	before := s.bus.GetSubscriberCount(eventbus.EventTypeRecordSaved)
	s.list.Close()
	s.Equal(before-1, s.bus.GetSubscriberCount(eventbus.EventTypeRecordSaved))

	_, err := s.list.Refresh(s.ctx)
	s.ErrorIs(err, apperrors.ErrControllerClosed)
	s.ErrorIs(s.list.RequestDelete("u1"), apperrors.ErrControllerClosed)
}

func TestListControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ListControllerTestSuite))
}

func TestListState_EmptyListSerializesAsArray(t *testing.T) {
	list := usecase.NewCollectionListController[model.Page](newMockRemote[model.Page](model.ResourcePage), "Page", nil, nil, usecase.ListOptions{})
	defer list.Close()
	state := list.State()
	require.NotNil(t, state.Records)
	assert.Empty(t, state.Records)
	assert.NotNil(t, state.Deleting)
}
