package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"cps-console/internal/view"
)

// Envelope is the response body of every API route.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
}

type pageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type paginated struct {
	Data       any      `json:"data"`
	Pagination pageMeta `json:"pagination"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func respondData(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Timestamp: now()})
}

func respondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Timestamp: now()})
}

func respondPage(c echo.Context, items any, p view.Pagination) error {
	return respondData(c, http.StatusOK, paginated{
		Data: items,
		Pagination: pageMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages(),
		},
	})
}

// RespondError writes a failed envelope. The server's error handler is its
// only caller outside this package.
func RespondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Code: code, Timestamp: now()})
}
