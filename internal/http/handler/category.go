package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cps-console/internal/domain/project"
	"cps-console/pkg/validator"
)

type CategoryHandler struct {
	categoryRepo CategoryRepository
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categoryRepo CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepo: categoryRepo}
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryRepo.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req project.CreateCategoryInput
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

	category, err := h.categoryRepo.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req project.UpdateCategoryInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	trimmed(req.Name)
	if err := validator.Struct(req); err != nil {
		return err
	}

	category, err := h.categoryRepo.UpdateCategory(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.categoryRepo.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}
