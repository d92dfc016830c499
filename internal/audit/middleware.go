package audit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cps-console/internal/auth"
)

const (
	apiPrefix     = "/api/"
	recordTimeout = 2 * time.Second
)

var resourceBySegment = map[string]ResourceType{
	"project-categories": ResourceCategory,
	"projects":           ResourceProject,
	"sub-projects":       ResourceSubProject,
	"content-types":      ResourceContentType,
	"contents":           ResourceContent,
	"text-commands":      ResourceTextCommand,
	"documentation":      ResourceDocumentation,
	"uploaded-images":    ResourceImage,
	"images":             ResourceImage,
	"auth":               ResourceSession,
}

var actionBySegment = map[string]Action{
	"reorder":     ActionReorder,
	"bulk-delete": ActionBulkDelete,
	"generate":    ActionGenerate,
	"upload":      ActionUpload,
	"login":       ActionLogin,
}

var actionByMethod = map[string]Action{
	http.MethodPost:   ActionCreate,
	http.MethodPut:    ActionUpdate,
	http.MethodPatch:  ActionUpdate,
	http.MethodDelete: ActionDelete,
}

// Middleware records every mutating API request once the response status is
// known. Reads and unmapped routes pass through untouched. Events are written
// in the background so a slow recorder never delays the response.
func Middleware(recorder Recorder, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			action, mutating := actionByMethod[c.Request().Method]
			if !mutating {
				return next(c)
			}

			err := next(c)
			if err != nil {
				// Render now so the committed status can be recorded.
				c.Error(err)
			}

			event, ok := eventFor(c, action, err)
			if !ok {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			go func() {
				defer cancel()
				if recErr := recorder.Record(ctx, event); recErr != nil {
					log.Warn("audit record failed",
						zap.String("resource", string(event.ResourceType)),
						zap.String("action", string(event.Action)),
						zap.Error(recErr))
				}
			}()
			return err
		}
	}
}

func eventFor(c echo.Context, action Action, err error) (*Event, bool) {
	path := c.Path()
	if !strings.HasPrefix(path, apiPrefix) {
		return nil, false
	}
	segments := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	resource, ok := resourceBySegment[segments[0]]
	if !ok {
		return nil, false
	}
	if len(segments) > 1 {
		if a, ok := actionBySegment[segments[1]]; ok {
			action = a
		}
	}

	code := c.Response().Status
	event := &Event{
		Operator:     auth.Operator(c),
		ResourceType: resource,
		Action:       action,
		Status:       statusFor(code),
		HTTPStatus:   code,
		IPAddress:    c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
		RequestID:    c.Response().Header().Get(echo.HeaderXRequestID),
		Metadata: map[string]any{
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
		},
	}
	if id, perr := strconv.ParseInt(c.Param("id"), 10, 64); perr == nil && id > 0 {
		event.ResourceID = &id
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return event, true
}

func statusFor(code int) Status {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return StatusDenied
	case code >= http.StatusBadRequest:
		return StatusFailure
	default:
		return StatusSuccess
	}
}
