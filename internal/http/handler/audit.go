package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cps-console/internal/audit"
)

// AuditQuerier lists recorded mutations.
type AuditQuerier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]*audit.Event, error)
}

type AuditHandler struct {
	querier AuditQuerier
}

func NewAuditHandler(querier AuditQuerier) *AuditHandler {
	return &AuditHandler{querier: querier}
}

// ListEvents returns recent mutations, newest first.
func (h *AuditHandler) ListEvents(c echo.Context) error {
	limit, err := queryInt(c, queryLimit)
	if err != nil {
		return err
	}
	filter := audit.QueryFilter{
		Operator:     strings.TrimSpace(c.QueryParam(queryOperator)),
		ResourceType: audit.ResourceType(strings.TrimSpace(c.QueryParam(queryResourceType))),
		Action:       audit.Action(strings.TrimSpace(c.QueryParam(queryAction))),
		Status:       audit.Status(strings.TrimSpace(c.QueryParam(queryStatus))),
		Limit:        limit,
	}

	events, err := h.querier.Query(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, events)
}
