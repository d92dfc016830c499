package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"cps-console/internal/domain/docentry"
)

type DocumentationHandler struct {
	docRepo DocumentationRepository
}

// NewDocumentationHandler creates a new documentation handler.
func NewDocumentationHandler(docRepo DocumentationRepository) *DocumentationHandler {
	return &DocumentationHandler{docRepo: docRepo}
}

type documentationListing struct {
	Items           []docentry.Entry `json:"items"`
	LastGeneratedAt *time.Time            `json:"lastGeneratedAt,omitempty"`
}

func (h *DocumentationHandler) ListDocumentation(c echo.Context) error {
	categoryID, err := queryID(c, queryCategoryID)
	if err != nil {
		return err
	}
	projectID, err := queryID(c, queryProjectID)
	if err != nil {
		return err
	}

	filters := docentry.Filters{
		CategoryID: categoryID,
		ProjectID:  projectID,
		Keyword:    c.QueryParam(queryKeyword),
	}.Normalized()

	listing, err := h.docRepo.ListDocumentation(c.Request().Context(), filters)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, documentationListing{
		Items:           listing.Entries,
		LastGeneratedAt: listing.LastSyncedAt,
	})
}

// GenerateDocumentation accepts an empty body, which regenerates every
// documentation-enabled sub-project.
func (h *DocumentationHandler) GenerateDocumentation(c echo.Context) error {
	var req docentry.GenerateInput
	if c.Request().ContentLength != 0 {
		if err := bindStrictJSON(c, &req); err != nil {
			return err
		}
	}

	if err := h.docRepo.GenerateDocumentation(c.Request().Context(), req); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgGenerated)
}
