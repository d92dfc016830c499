package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cps-console/internal/domain/content"
	"cps-console/pkg/validator"
)

type ContentHandler struct {
	typeRepo    ContentTypeRepository
	contentRepo ContentRepository
	commandRepo TextCommandRepository
}

// NewContentHandler creates a new content handler.
func NewContentHandler(typeRepo ContentTypeRepository, contentRepo ContentRepository, commandRepo TextCommandRepository) *ContentHandler {
	return &ContentHandler{
		typeRepo:    typeRepo,
		contentRepo: contentRepo,
		commandRepo: commandRepo,
	}
}

func (h *ContentHandler) ListContentTypes(c echo.Context) error {
	types, err := h.typeRepo.ListContentTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, types)
}

func (h *ContentHandler) CreateContentType(c echo.Context) error {
	var req content.CreateTypeInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Struct(req); err != nil {
		return err
	}
	if err := validator.Name("name", req.Name); err != nil {
		return err
	}

	t, err := h.typeRepo.CreateContentType(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, t)
}

func (h *ContentHandler) UpdateContentType(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req content.UpdateTypeInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	trimmed(req.Name)
	if err := validator.Struct(req); err != nil {
		return err
	}

	t, err := h.typeRepo.UpdateContentType(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, t)
}

// DeleteContentType refuses system types; the backend reports them with
// the system-type error.
func (h *ContentHandler) DeleteContentType(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.typeRepo.DeleteContentType(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}

func (h *ContentHandler) CreateContent(c echo.Context) error {
	var req content.SaveContentInput
	if err := bindValid(c, &req); err != nil {
		return err
	}

	item, err := h.contentRepo.CreateContent(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, item)
}

func (h *ContentHandler) UpdateContent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req content.SaveContentInput
	if err := bindValid(c, &req); err != nil {
		return err
	}

	item, err := h.contentRepo.UpdateContent(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, item)
}

func (h *ContentHandler) DeleteContent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.contentRepo.DeleteContent(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}

func (h *ContentHandler) CreateTextCommand(c echo.Context) error {
	var req content.SaveTextCommandInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	req.CommandText = strings.TrimSpace(req.CommandText)
	if err := validator.Struct(req); err != nil {
		return err
	}

	cmd, err := h.commandRepo.CreateTextCommand(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, cmd)
}

func (h *ContentHandler) UpdateTextCommand(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req content.SaveTextCommandInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	req.ID = id
	req.CommandText = strings.TrimSpace(req.CommandText)
	if err := validator.Struct(req); err != nil {
		return err
	}

	cmd, err := h.commandRepo.UpdateTextCommand(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, cmd)
}

func (h *ContentHandler) DeleteTextCommand(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.commandRepo.DeleteTextCommand(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}

func (h *ContentHandler) BulkDeleteTextCommands(c echo.Context) error {
	var req content.BulkDeleteTextCommandsInput
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := h.commandRepo.BulkDeleteTextCommands(c.Request().Context(), req); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}
