package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cps-console/internal/domain/project"
	"cps-console/internal/view"
	"cps-console/pkg/validator"
)

type ProjectHandler struct {
	projectRepo ProjectRepository
	subRepo     SubProjectLister
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projectRepo ProjectRepository, subRepo SubProjectLister) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		subRepo:     subRepo,
	}
}

// ListProjects returns a bare array unless the caller asks for a page, in
// which case the list is wrapped with its pagination block.
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	categoryID, err := queryID(c, queryCategoryID)
	if err != nil {
		return err
	}
	page, err := queryInt(c, queryPage)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, queryLimit)
	if err != nil {
		return err
	}

	filter := project.ListProjectsFilter{
		Keyword:    strings.TrimSpace(c.QueryParam(queryKeyword)),
		CategoryID: categoryID,
		Page:       page,
		Limit:      limit,
	}
	projects, total, err := h.projectRepo.ListProjects(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	if page == 0 && limit == 0 {
		return respondData(c, http.StatusOK, projects)
	}

	p := view.NewPagination()
	if limit > 0 {
		p.SetLimit(limit)
	}
	p.SetTotal(total)
	p.SetPage(page)
	return respondPage(c, projects, p)
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	proj, err := h.projectRepo.GetProject(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, proj)
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req project.CreateProjectInput
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

	proj, err := h.projectRepo.CreateProject(c.Request().Context(), req)
	if err != nil {
		c.Logger().Errorf("Failed to create project: %v", err)
		return err
	}
	return respondData(c, http.StatusCreated, proj)
}

func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req project.UpdateProjectInput
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	trimmed(req.Name)
	if err := validator.Struct(req); err != nil {
		return err
	}
	if req.Name != nil {
		if err := validator.Name("name", *req.Name); err != nil {
			return err
		}
	}

	proj, err := h.projectRepo.UpdateProject(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, proj)
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.projectRepo.DeleteProject(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgDeleted)
}

func (h *ProjectHandler) ListSubProjects(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if _, err := h.projectRepo.GetProject(c.Request().Context(), id); err != nil {
		return err
	}
	subs, err := h.subRepo.ListSubProjects(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, subs)
}
