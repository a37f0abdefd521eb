package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/eventbus"
	"admin-console/internal/shared/logger"
)

// SectionHandle is the entity-agnostic surface of a Section used by the HTTP
// adapter and the CLI.
type SectionHandle interface {
	Resource() string
	Entity() string
	Fields() []string
	State() interface{}
	Records() interface{}
	PrimaryAction(ctx context.Context) (Selection, error)
	Edit(ctx context.Context, id string) (Selection, error)
	Close() Selection
	ChangeField(field, value string) (map[string]string, error)
	Submit(ctx context.Context) (interface{}, error)
	ResetForm() error
	Refresh(ctx context.Context) error
	RequestDelete(id string) error
	ConfirmDelete(ctx context.Context, id string) error
	CancelDelete()
	Shutdown()
}

// SectionConfig carries the per-section tunables.
type SectionConfig struct {
	RequestTimeout    time.Duration
	ClearOnFetchError bool
}

// SectionState is the JSON snapshot of a section.
type SectionState[T model.Record] struct {
	Resource     string       `json:"resource"`
	Entity       string       `json:"entity"`
	Selection    Selection    `json:"selection"`
	PrimaryLabel string       `json:"primaryLabel"`
	List         ListState[T] `json:"list"`
	Form         *FormState   `json:"form,omitempty"`
}

// Section composes the coordinator, the list controller and at most one live
// form for one entity.
type Section[T model.Record] struct {
	mu sync.Mutex

	schema model.Schema[T]
	remote repository.RemoteCollection[T]
	bus    eventbus.EventBusInterface
	log    logger.Logger
	cfg    SectionConfig

	coord *SectionCoordinator
	list  *CollectionListController[T]
	form  *RecordFormController[T]
}

var _ SectionHandle = (*Section[model.User])(nil)

// NewSection wires a section for schema against remote.
func NewSection[T model.Record](schema model.Schema[T], remote repository.RemoteCollection[T], bus eventbus.EventBusInterface, log logger.Logger, cfg SectionConfig) *Section[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Section[T]{
		schema: schema,
		remote: remote,
		bus:    bus,
		log:    log.WithComponent("section").WithFields(map[string]interface{}{"resource": schema.Resource}),
		cfg:    cfg,
		coord:  NewSectionCoordinator(schema.Entity),
		list: NewCollectionListController(remote, schema.Entity, bus, log, ListOptions{
			Timeout:           cfg.RequestTimeout,
			ClearOnFetchError: cfg.ClearOnFetchError,
		}),
	}
}

func (s *Section[T]) Resource() string { return s.schema.Resource }
func (s *Section[T]) Entity() string   { return s.schema.Entity }
func (s *Section[T]) Fields() []string { return s.schema.FieldNames() }

// List exposes the list controller.
func (s *Section[T]) List() *CollectionListController[T] { return s.list }

// Form returns the live form, or nil while the list is shown.
func (s *Section[T]) Form() *RecordFormController[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Selection returns the coordinator's selection.
func (s *Section[T]) Selection() Selection { return s.coord.Selection() }

// PrimaryAction toggles between the list and a fresh add form.
func (s *Section[T]) PrimaryAction(ctx context.Context) (Selection, error) {
	s.mu.Lock()
	sel := s.coord.PrimaryAction()
	s.replaceFormLocked(sel)
	s.mu.Unlock()
	s.log.WithContext(ctx).Debugf("Primary action -> %s", sel.Mode)
	return sel, nil
}

// Edit opens an edit form for id and loads the record. A failed load leaves
// the form open with the error surfaced.
func (s *Section[T]) Edit(ctx context.Context, id string) (Selection, error) {
	if id == "" {
		return s.coord.Selection(), apperrors.ErrInvalidInput
	}
	s.mu.Lock()
	sel := s.coord.Edit(id)
	form := s.replaceFormLocked(sel)
	s.mu.Unlock()

	if _, err := form.Load(ctx); err != nil {
		return sel, err
	}
	return sel, nil
}

// Close returns to the list and discards the open form.
func (s *Section[T]) Close() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.coord.Close()
	s.replaceFormLocked(sel)
	return sel
}

// replaceFormLocked tears down the current form and opens the one sel calls
// for. Callers hold s.mu.
func (s *Section[T]) replaceFormLocked(sel Selection) *RecordFormController[T] {
	if s.form != nil {
		s.form.Close()
		s.form = nil
	}
	switch sel.Mode {
	case ModeAdding:
		s.form = NewAddForm(s.schema, s.remote, s.bus, s.log, FormOptions{Timeout: s.cfg.RequestTimeout})
	case ModeEditing:
		var form *RecordFormController[T]
		form = NewEditForm(s.schema, s.remote, s.bus, s.log, sel.EditingID, FormOptions{
			Timeout: s.cfg.RequestTimeout,
			OnClose: func() { s.closeForm(form) },
		})
		s.form = form
	}
	return s.form
}

// closeForm returns to the list if form is still the live one.
func (s *Section[T]) closeForm(form *RecordFormController[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != form {
		return
	}
	s.form.Close()
	s.form = nil
	s.coord.Close()
}

// ChangeField edits the open form.
func (s *Section[T]) ChangeField(field, value string) (map[string]string, error) {
	form := s.Form()
	if form == nil {
		return nil, apperrors.ErrNoActiveForm
	}
	return form.Change(field, value)
}

// SubmitRecord submits the open form and returns the saved record.
func (s *Section[T]) SubmitRecord(ctx context.Context) (T, error) {
	var zero T
	form := s.Form()
	if form == nil {
		return zero, apperrors.ErrNoActiveForm
	}
	return form.Submit(ctx)
}

// Submit implements SectionHandle.
func (s *Section[T]) Submit(ctx context.Context) (interface{}, error) {
	record, err := s.SubmitRecord(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ResetForm discards edits in the open form.
func (s *Section[T]) ResetForm() error {
	form := s.Form()
	if form == nil {
		return apperrors.ErrNoActiveForm
	}
	return form.Reset()
}

func (s *Section[T]) Refresh(ctx context.Context) error {
	_, err := s.list.Refresh(ctx)
	return err
}

func (s *Section[T]) RequestDelete(id string) error { return s.list.RequestDelete(id) }

func (s *Section[T]) ConfirmDelete(ctx context.Context, id string) error {
	return s.list.ConfirmDelete(ctx, id)
}

func (s *Section[T]) CancelDelete() { s.list.CancelDelete() }

// SectionState returns the typed snapshot.
func (s *Section[T]) SectionState() SectionState[T] {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	state := SectionState[T]{
		Resource:     s.schema.Resource,
		Entity:       s.schema.Entity,
		Selection:    s.coord.Selection(),
		PrimaryLabel: s.coord.PrimaryLabel(),
		List:         s.list.State(),
	}
	if form != nil {
		fs := form.State()
		state.Form = &fs
	}
	return state
}

// State implements SectionHandle.
func (s *Section[T]) State() interface{} { return s.SectionState() }

// Records returns the visible list as []T.
func (s *Section[T]) Records() interface{} { return s.list.Records() }

// Shutdown closes the form and the list.
func (s *Section[T]) Shutdown() {
	s.mu.Lock()
	if s.form != nil {
		s.form.Close()
		s.form = nil
	}
	s.mu.Unlock()
	s.list.Close()
}

// SectionRegistry looks sections up by resource name.
type SectionRegistry struct {
	sections map[string]SectionHandle
}

// NewSectionRegistry indexes sections by Resource(). Later duplicates replace
// earlier ones.
func NewSectionRegistry(sections ...SectionHandle) *SectionRegistry {
	r := &SectionRegistry{sections: make(map[string]SectionHandle, len(sections))}
	for _, s := range sections {
		r.sections[s.Resource()] = s
	}
	return r
}

// Get returns the section for resource.
func (r *SectionRegistry) Get(resource string) (SectionHandle, error) {
	s, ok := r.sections[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownResource, resource)
	}
	return s, nil
}

// Resources lists the registered resource names, sorted.
func (r *SectionRegistry) Resources() []string {
	names := make([]string, 0, len(r.sections))
	for name := range r.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shutdown shuts every section down.
func (r *SectionRegistry) Shutdown() {
	for _, s := range r.sections {
		s.Shutdown()
	}
}
