package http

import (
	"errors"

	"admin-console/internal/admin/usecase"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// SectionHandler exposes each Section over HTTP so a browser front end can
// drive it.
type SectionHandler struct {
	sections *usecase.SectionRegistry
	history  *usecase.NotificationHistory
	log      logger.Logger
}

// NewSectionHandler creates a SectionHandler. history may be nil.
func NewSectionHandler(sections *usecase.SectionRegistry, history *usecase.NotificationHistory, log logger.Logger) *SectionHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SectionHandler{sections: sections, history: history, log: log.WithComponent("section_handler")}
}

// FieldChange is the body of PATCH /form.
type FieldChange struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SectionInfo describes one registered section.
type SectionInfo struct {
	Resource string   `json:"resource"`
	Entity   string   `json:"entity"`
	Fields   []string `json:"fields"`
}

// RegisterRoutes registers the section and notification routes under router.
func (h *SectionHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/sections", h.ListSections)
	router.Get("/notifications", h.RecentNotifications)

	section := router.Group("/sections/:resource", RequestContext())
	section.Get("/", h.GetState)
	section.Post("/primary", h.PrimaryAction)
	section.Post("/edit/:id", h.Edit)
	section.Post("/close", h.Close)
	section.Patch("/form", h.ChangeField)
	section.Post("/form/submit", h.Submit)
	section.Post("/form/reset", h.ResetForm)
	section.Post("/refresh", h.Refresh)
	// cancel must be registered before the :id routes.
	section.Post("/delete/cancel", h.CancelDelete)
	section.Post("/delete/:id", h.RequestDelete)
	section.Post("/delete/:id/confirm", h.ConfirmDelete)
}

// ListSections returns the registered sections and their fields.
func (h *SectionHandler) ListSections(c *fiber.Ctx) error {
	infos := make([]SectionInfo, 0)
	for _, name := range h.sections.Resources() {
		s, err := h.sections.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, SectionInfo{Resource: s.Resource(), Entity: s.Entity(), Fields: s.Fields()})
	}
	return c.JSON(fiber.Map{"sections": infos})
}

// RecentNotifications returns stored notifications, oldest first.
func (h *SectionHandler) RecentNotifications(c *fiber.Ctx) error {
	if h.history == nil {
		return c.JSON(fiber.Map{"notifications": []interface{}{}})
	}
	limit := c.QueryInt("limit", 20)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_limit",
			"message": "limit must not be negative",
		})
	}
	notes, err := h.history.Recent(c.UserContext(), limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notes})
}

// GetState returns the section snapshot.
func (h *SectionHandler) GetState(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// PrimaryAction toggles between the list and the add form.
func (h *SectionHandler) PrimaryAction(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if _, err := s.PrimaryAction(c.UserContext()); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// Edit opens the edit form for :id and loads it.
func (h *SectionHandler) Edit(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if _, err := s.Edit(c.UserContext(), recordID(c)); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// Close returns to the list.
func (h *SectionHandler) Close(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	s.Close()
	return c.JSON(s.State())
}

// ChangeField sets one draft field.
func (h *SectionHandler) ChangeField(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body FieldChange
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request_body",
			"message": "Failed to parse request body",
		})
	}
	if body.Field == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "missing_field",
			"message": "field is required",
		})
	}
	if _, err := s.ChangeField(body.Field, body.Value); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// Submit sends the draft to the remote collection.
func (h *SectionHandler) Submit(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	record, err := s.Submit(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"record": record,
		"state":  s.State(),
	})
}

// ResetForm discards draft edits.
func (h *SectionHandler) ResetForm(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := s.ResetForm(); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// Refresh re-fetches the collection.
func (h *SectionHandler) Refresh(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := s.Refresh(c.UserContext()); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// RequestDelete opens the delete confirmation for :id.
func (h *SectionHandler) RequestDelete(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := s.RequestDelete(recordID(c)); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// ConfirmDelete deletes :id, which must be awaiting confirmation.
func (h *SectionHandler) ConfirmDelete(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := s.ConfirmDelete(c.UserContext(), recordID(c)); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(s.State())
}

// CancelDelete dismisses the delete confirmation.
func (h *SectionHandler) CancelDelete(c *fiber.Ctx) error {
	s, err := h.section(c)
	if err != nil {
		return h.writeError(c, err)
	}
	s.CancelDelete()
	return c.JSON(s.State())
}

func (h *SectionHandler) section(c *fiber.Ctx) (usecase.SectionHandle, error) {
	return h.sections.Get(c.Params("resource"))
}

// recordID copies the :id param. Sections keep ids after the request ends,
// and without Immutable the param aliases a buffer fasthttp reuses.
func recordID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// writeError maps err to a JSON error response.
func (h *SectionHandler) writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)

	var appErr *apperrors.AppError
	var ve *apperrors.ValidationErrors
	if errors.As(err, &ve) {
		appErr = ve.ToAppError()
	}
	if appErr == nil {
		appErr = apperrors.WrapError(err, apperrors.Message(err))
	}
	appErr = appErr.WithCode(code)

	body := fiber.Map{
		"error":   appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}

	if status >= fiber.StatusInternalServerError {
		h.log.WithContext(c.UserContext()).Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	} else {
		h.log.WithContext(c.UserContext()).Debugf("%s %s rejected: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownResource):
		return fiber.StatusNotFound, "unknown_resource"
	case apperrors.IsValidation(err):
		return fiber.StatusUnprocessableEntity, "validation_failed"
	case apperrors.IsNotFound(err):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrNotEditing):
		return fiber.StatusBadRequest, "invalid_request"
	case errors.Is(err, apperrors.ErrControllerClosed):
		return fiber.StatusConflict, "closed"
	case apperrors.IsConflict(err):
		return fiber.StatusConflict, "conflict"
	case apperrors.IsRemote(err):
		return fiber.StatusBadGateway, "remote_error"
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.HTTPCode != 0 {
		return appErr.HTTPCode, string(appErr.Type)
	}
	return fiber.StatusInternalServerError, "internal_error"
}
