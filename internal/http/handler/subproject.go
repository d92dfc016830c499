package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cps-console/internal/domain/subproject"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

type SubProjectHandler struct {
	subRepo SubProjectRepository
}

// NewSubProjectHandler creates a new sub-project handler.
func NewSubProjectHandler(subRepo SubProjectRepository) *SubProjectHandler {
	return &SubProjectHandler{subRepo: subRepo}
}

func (h *SubProjectHandler) ListSubProjects(c echo.Context) error {
	projectID, err := queryID(c, queryProjectID)
	if err != nil {
		return err
	}
	if projectID == nil {
		return apperrors.BadRequest(msgProjectIDRequired)
	}

	subs, err := h.subRepo.ListSubProjects(c.Request().Context(), *projectID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, subs)
}

func (h *SubProjectHandler) GetSubProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	sub, err := h.subRepo.GetSubProject(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, sub)
}

func (h *SubProjectHandler) CreateSubProject(c echo.Context) error {
	var req subproject.CreateSubProjectInput
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

	sub, err := h.subRepo.CreateSubProject(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, sub)
}

func (h *SubProjectHandler) UpdateSubProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req subproject.UpdateSubProjectInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	trimmed(req.Name)
	if err := validator.Struct(req); err != nil {
		return err
	}

	sub, err := h.subRepo.UpdateSubProject(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, sub)
}

func (h *SubProjectHandler) DeleteSubProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.subRepo.DeleteSubProject(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}

func (h *SubProjectHandler) ReorderSubProjects(c echo.Context) error {
	var req subproject.ReorderInput
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ordered, err := h.subRepo.ReorderSubProjects(c.Request().Context(), req.Items)
	if err != nil {
		return err
	}
	if len(ordered) == 0 {
		return respondMessage(c, http.StatusOK, msgReordered)
	}
	return respondData(c, http.StatusOK, ordered)
}
