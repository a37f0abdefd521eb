package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/eventbus"
	"admin-console/internal/shared/logger"
	"admin-console/internal/shared/utils"
)

// DefaultRequestTimeout bounds every remote call when no timeout is configured.
const DefaultRequestTimeout = 10 * time.Second

// FormMode says whether a form creates a new record or edits an existing one.
type FormMode string

const (
	FormModeAdd  FormMode = "add"
	FormModeEdit FormMode = "edit"
)

// FormPhase is the lifecycle phase of a form.
type FormPhase string

const (
	FormPhaseIdle       FormPhase = "idle"
	FormPhaseLoading    FormPhase = "loading"
	FormPhaseSubmitting FormPhase = "submitting"
	FormPhaseSucceeded  FormPhase = "succeeded"
	FormPhaseFailed     FormPhase = "failed"
)

// Draft is the in-progress copy of a record's editable fields.
type Draft struct {
	Values      map[string]string `json:"values"`
	Submitting  bool              `json:"submitting"`
	SubmitError string            `json:"submitError,omitempty"`
}

// FormState is a point-in-time copy of a form controller.
type FormState struct {
	Mode        FormMode          `json:"mode"`
	RecordID    string            `json:"recordId,omitempty"`
	Phase       FormPhase         `json:"phase"`
	Draft       Draft             `json:"draft"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

// FormOptions configures a RecordFormController.
type FormOptions struct {
	Timeout time.Duration
	// OnClose runs after a successful edit so the owner can return to the list.
	OnClose func()
}

// RecordFormController owns the create-or-edit lifecycle of one record.
type RecordFormController[T model.Record] struct {
	mu sync.Mutex

	schema   model.Schema[T]
	remote   repository.RemoteCollection[T]
	bus      eventbus.EventBusInterface
	notifier *Notifier
	log      logger.Logger
	timeout  time.Duration
	onClose  func()

	mode     FormMode
	recordID string
	loaded   map[string]string
	phase    FormPhase
	draft    Draft
	touched  map[string]bool
	closed   bool
}

// NewAddForm opens an empty form that creates a record on submit.
func NewAddForm[T model.Record](schema model.Schema[T], remote repository.RemoteCollection[T], bus eventbus.EventBusInterface, log logger.Logger, opts FormOptions) *RecordFormController[T] {
	return newForm(schema, remote, bus, log, FormModeAdd, "", opts)
}

// NewEditForm opens a form for record id. The form stays empty until Load
// resolves.
func NewEditForm[T model.Record](schema model.Schema[T], remote repository.RemoteCollection[T], bus eventbus.EventBusInterface, log logger.Logger, id string, opts FormOptions) *RecordFormController[T] {
	return newForm(schema, remote, bus, log, FormModeEdit, id, opts)
}

func newForm[T model.Record](schema model.Schema[T], remote repository.RemoteCollection[T], bus eventbus.EventBusInterface, log logger.Logger, mode FormMode, id string, opts FormOptions) *RecordFormController[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &RecordFormController[T]{
		schema:   schema,
		remote:   remote,
		bus:      bus,
		notifier: NewNotifier(bus, log),
		log:      log.WithComponent("form").WithFields(map[string]interface{}{"resource": schema.Resource, "mode": string(mode)}),
		timeout:  timeout,
		onClose:  opts.OnClose,
		mode:     mode,
		recordID: id,
		phase:    FormPhaseIdle,
		draft:    Draft{Values: schema.EmptyDraft()},
		touched:  make(map[string]bool),
	}
}

// Mode reports whether the form adds or edits.
func (c *RecordFormController[T]) Mode() FormMode { return c.mode }

// RecordID is the record being edited, or "" in add mode.
func (c *RecordFormController[T]) RecordID() string { return c.recordID }

// Load fetches the edited record and copies it into the draft.
func (c *RecordFormController[T]) Load(ctx context.Context) (T, error) {
	var zero T

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, apperrors.ErrControllerClosed
	}
	if c.mode != FormModeEdit {
		c.mu.Unlock()
		return zero, apperrors.ErrNotEditing
	}
	if c.phase == FormPhaseSubmitting {
		c.mu.Unlock()
		return zero, apperrors.ErrSubmitInProgress
	}
	c.phase = FormPhaseLoading
	c.draft = Draft{Values: c.schema.EmptyDraft()}
	c.touched = make(map[string]bool)
	id := c.recordID
	c.mu.Unlock()

	ctx = c.opContext(ctx, model.OperationLoad)
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	record, err := c.remote.Get(reqCtx, id)
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.WithContext(ctx).Debug("Dropping load result for closed form")
		return record, err
	}
	if err != nil {
		c.phase = FormPhaseFailed
		c.draft.SubmitError = apperrors.Message(err)
		c.mu.Unlock()
		c.log.WithContext(ctx).Warnf("Failed to load record: %v", err)
		c.notifier.Failure(ctx, c.schema.Resource, model.OperationLoad, id, err)
		return zero, err
	}
	c.loaded = c.schema.DraftFrom(record)
	c.draft = Draft{Values: copyValues(c.loaded)}
	c.phase = FormPhaseIdle
	c.mu.Unlock()

	c.log.WithContext(ctx).Debug("Record loaded into form")
	return record, nil
}

// Change sets one field and returns the errors of every touched field.
func (c *RecordFormController[T]) Change(field, value string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, apperrors.ErrControllerClosed
	}
	switch c.phase {
	case FormPhaseSubmitting:
		return nil, apperrors.ErrSubmitInProgress
	case FormPhaseLoading:
		return nil, apperrors.ErrFormLoading
	}
	if !c.schema.HasField(field) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownField, field)
	}

	c.draft.Values[field] = value
	c.touched[field] = true
	// Editing after a failure starts a new attempt; SubmitError stays until
	// the next submit.
	if c.phase == FormPhaseFailed {
		c.phase = FormPhaseIdle
	}
	return c.visibleErrors(), nil
}

// Submit validates the draft and sends exactly one create or update request.
// A submit while another is in flight returns ErrSubmitInProgress without
// touching the remote collection.
func (c *RecordFormController[T]) Submit(ctx context.Context) (T, error) {
	var zero T

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, apperrors.ErrControllerClosed
	}
	switch c.phase {
	case FormPhaseSubmitting:
		c.mu.Unlock()
		return zero, apperrors.ErrSubmitInProgress
	case FormPhaseLoading:
		c.mu.Unlock()
		return zero, apperrors.ErrFormLoading
	}
	for _, name := range c.schema.FieldNames() {
		c.touched[name] = true
	}
	if errs := c.schema.Validate(c.draft.Values); len(errs) > 0 {
		c.mu.Unlock()
		return zero, apperrors.FromFieldErrors(errs)
	}
	c.phase = FormPhaseSubmitting
	c.draft.Submitting = true
	c.draft.SubmitError = ""
	values := copyValues(c.draft.Values)
	mode, id := c.mode, c.recordID
	c.mu.Unlock()

	op := model.OperationCreate
	if mode == FormModeEdit {
		op = model.OperationUpdate
	}
	ctx = c.opContext(ctx, op)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	var record T
	var err error
	if mode == FormModeAdd {
		record, err = c.remote.Create(reqCtx, values)
	} else {
		record, err = c.remote.Update(reqCtx, id, values)
	}
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.WithContext(ctx).Debug("Dropping submit result for closed form")
		return record, err
	}
	if err != nil {
		c.phase = FormPhaseFailed
		c.draft.Submitting = false
		c.draft.SubmitError = apperrors.Message(err)
		c.mu.Unlock()
		c.log.WithContext(ctx).Warnf("Submit failed: %v", err)
		c.notifier.Failure(ctx, c.schema.Resource, op, id, err)
		return zero, err
	}
	// succeeded is transient: the draft goes straight back to empty idle.
	c.phase = FormPhaseSucceeded
	if id == "" {
		id = record.RecordID()
	}
	c.resetLocked()
	onClose := c.onClose
	c.mu.Unlock()

	c.log.WithContext(ctx).Infof("%s %s saved", c.schema.Entity, id)
	publishChange(ctx, c.bus, c.log, eventbus.EventTypeRecordSaved, RecordChange{Resource: c.schema.Resource, RecordID: id, Operation: op})
	c.notifier.Success(ctx, c.schema.Resource, op, id, successMessage(c.schema.Entity, op))
	if mode == FormModeEdit && onClose != nil {
		onClose()
	}
	return record, nil
}

// Reset discards edits. Add forms go back to empty; edit forms go back to the
// last loaded record.
func (c *RecordFormController[T]) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return apperrors.ErrControllerClosed
	}
	if c.phase == FormPhaseSubmitting {
		return apperrors.ErrSubmitInProgress
	}
	if c.mode == FormModeEdit && c.loaded != nil {
		c.phase = FormPhaseIdle
		c.draft = Draft{Values: copyValues(c.loaded)}
		c.touched = make(map[string]bool)
		return nil
	}
	c.resetLocked()
	return nil
}

// Close tears the form down. Requests still in flight complete but their
// results are dropped.
func (c *RecordFormController[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *RecordFormController[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// State returns a copy of the form state.
func (c *RecordFormController[T]) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return FormState{
		Mode:     c.mode,
		RecordID: c.recordID,
		Phase:    c.phase,
		Draft: Draft{
			Values:      copyValues(c.draft.Values),
			Submitting:  c.draft.Submitting,
			SubmitError: c.draft.SubmitError,
		},
		FieldErrors: c.visibleErrors(),
	}
}

// resetLocked returns to an empty idle draft. Callers hold c.mu.
func (c *RecordFormController[T]) resetLocked() {
	c.phase = FormPhaseIdle
	c.draft = Draft{Values: c.schema.EmptyDraft()}
	c.touched = make(map[string]bool)
}

// visibleErrors validates the draft and keeps errors of touched fields only.
// Callers hold c.mu.
func (c *RecordFormController[T]) visibleErrors() map[string]string {
	out := make(map[string]string)
	for field, msg := range c.schema.Validate(c.draft.Values) {
		if c.touched[field] {
			out[field] = msg
		}
	}
	return out
}

func (c *RecordFormController[T]) opContext(ctx context.Context, op model.Operation) context.Context {
	ctx = utils.WithResource(ctx, c.schema.Resource)
	ctx = utils.WithOperation(ctx, string(op))
	if c.recordID != "" {
		ctx = utils.WithRecordID(ctx, c.recordID)
	}
	return ctx
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func successMessage(entity string, op model.Operation) string {
	switch op {
	case model.OperationCreate:
		return entity + " added successfully"
	case model.OperationUpdate:
		return entity + " updated successfully"
	case model.OperationDelete:
		return entity + " deleted successfully"
	}
	return entity + " saved"
}
