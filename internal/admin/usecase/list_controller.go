package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/eventbus"
	"admin-console/internal/shared/logger"
	"admin-console/internal/shared/utils"
)

// ListState is a point-in-time copy of the collection view.
type ListState[T model.Record] struct {
	Records       []T      `json:"records"`
	Loading       bool     `json:"loading"`
	Error         string   `json:"error,omitempty"`
	PendingDelete string   `json:"pendingDelete,omitempty"`
	Deleting      []string `json:"deleting"`
}

// ListOptions configures a CollectionListController.
type ListOptions struct {
	Timeout time.Duration
	// ClearOnFetchError empties the list when a refresh fails instead of
	// keeping the last fetched records.
	ClearOnFetchError bool
}

// CollectionListController owns the visible collection. The list only ever
// changes through a successful fetch (which replaces it) or a successful
// delete (which removes one identifier); new records appear after a refresh.
type CollectionListController[T model.Record] struct {
	mu sync.Mutex

	remote     repository.RemoteCollection[T]
	bus        eventbus.EventBusInterface
	notifier   *Notifier
	log        logger.Logger
	timeout    time.Duration
	clearOnErr bool
	entity     string
	sub        eventbus.Subscription
	subscribed bool

	records  []T
	inflight int
	errMsg   string
	pending  string
	deleting map[string]bool
	closed   bool
}

// NewCollectionListController creates a list controller and subscribes it to
// record.saved events for its resource so saved forms trigger a refresh.
func NewCollectionListController[T model.Record](remote repository.RemoteCollection[T], entity string, bus eventbus.EventBusInterface, log logger.Logger, opts ListOptions) *CollectionListController[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	c := &CollectionListController[T]{
		remote:     remote,
		bus:        bus,
		notifier:   NewNotifier(bus, log),
		log:        log.WithComponent("list").WithFields(map[string]interface{}{"resource": remote.Resource()}),
		timeout:    timeout,
		clearOnErr: opts.ClearOnFetchError,
		entity:     entity,
		deleting:   make(map[string]bool),
	}
	if bus != nil {
		c.sub = bus.Subscribe(eventbus.EventTypeRecordSaved, c.onRecordSaved)
		c.subscribed = true
	}
	return c
}

func (c *CollectionListController[T]) onRecordSaved(ctx context.Context, event eventbus.Event) error {
	change, ok := event.Data().(RecordChange)
	if !ok || change.Resource != c.remote.Resource() {
		return nil
	}
	// Refresh reports its own failure through state and notifications.
	_, _ = c.Refresh(ctx)
	return nil
}

// Refresh replaces the list with the remote collection. Responses are applied
// in arrival order; the last one to arrive wins.
func (c *CollectionListController[T]) Refresh(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, apperrors.ErrControllerClosed
	}
	c.inflight++
	c.errMsg = ""
	c.mu.Unlock()

	ctx = utils.WithOperation(utils.WithResource(ctx, c.remote.Resource()), string(model.OperationFetch))
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	records, err := c.remote.List(reqCtx)
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return records, err
	}
	c.inflight--
	if err != nil {
		c.errMsg = apperrors.Message(err)
		if c.clearOnErr {
			c.records = nil
		}
		c.mu.Unlock()
		c.log.WithContext(ctx).Warnf("Failed to fetch collection: %v", err)
		c.notifier.Failure(ctx, c.remote.Resource(), model.OperationFetch, "", err)
		return nil, err
	}
	c.records = append([]T(nil), records...)
	c.mu.Unlock()

	c.log.WithContext(ctx).Debugf("Fetched %d records", len(records))
	return records, nil
}

// RequestDelete opens the confirmation for id, replacing any pending one. No
// remote call is made.
func (c *CollectionListController[T]) RequestDelete(id string) error {
	if id == "" {
		return apperrors.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperrors.ErrControllerClosed
	}
	c.pending = id
	return nil
}

// CancelDelete dismisses the pending confirmation.
func (c *CollectionListController[T]) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = ""
}

// ConfirmDelete deletes the record awaiting confirmation. id must match the
// pending request. On success id is removed from the list without a re-fetch;
// on failure the list is left as it was and the error is surfaced.
func (c *CollectionListController[T]) ConfirmDelete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrControllerClosed
	}
	if c.pending == "" || c.pending != id {
		c.mu.Unlock()
		return apperrors.ErrNoPendingDelete
	}
	c.pending = ""
	c.inflight++
	c.deleting[id] = true
	c.mu.Unlock()

	ctx = utils.WithOperation(utils.WithResource(ctx, c.remote.Resource()), string(model.OperationDelete))
	ctx = utils.WithRecordID(ctx, id)
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.remote.Delete(reqCtx, id)
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return err
	}
	c.inflight--
	delete(c.deleting, id)
	if err != nil {
		c.errMsg = apperrors.Message(err)
		c.mu.Unlock()
		c.log.WithContext(ctx).Warnf("Failed to delete record: %v", err)
		c.notifier.Failure(ctx, c.remote.Resource(), model.OperationDelete, id, err)
		return err
	}
	c.records = removeRecord(c.records, id)
	c.mu.Unlock()

	c.log.WithContext(ctx).Info("Record deleted")
	publishChange(ctx, c.bus, c.log, eventbus.EventTypeRecordDeleted, RecordChange{Resource: c.remote.Resource(), RecordID: id, Operation: model.OperationDelete})
	c.notifier.Success(ctx, c.remote.Resource(), model.OperationDelete, id, successMessage(c.entity, model.OperationDelete))
	return nil
}

// Records returns a copy of the visible list.
func (c *CollectionListController[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// State returns a copy of the collection view.
func (c *CollectionListController[T]) State() ListState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleting := make([]string, 0, len(c.deleting))
	for id := range c.deleting {
		deleting = append(deleting, id)
	}
	sort.Strings(deleting)

	records := append([]T(nil), c.records...)
	if records == nil {
		records = []T{}
	}
	return ListState[T]{
		Records:       records,
		Loading:       c.inflight > 0,
		Error:         c.errMsg,
		PendingDelete: c.pending,
		Deleting:      deleting,
	}
}

// Close unsubscribes from the bus. Requests still in flight complete but their
// results are dropped.
func (c *CollectionListController[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.subscribed {
		c.bus.Unsubscribe(c.sub)
	}
}

func removeRecord[T model.Record](records []T, id string) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordID() != id {
			out = append(out, r)
		}
	}
	return out
}
