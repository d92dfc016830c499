package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cps-console/internal/http/handler"
	"cps-console/internal/http/middleware"
	apperrors "cps-console/pkg/errors"
)

const (
	msgInternalServer = "服务器内部错误"
	unknownRequestID  = "unknown"
)

// NewErrorHandler maps sentinel errors to HTTP status codes and renders the
// failure envelope. Messages of client errors pass through; internal errors
// are logged and masked.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, errCode, message := classify(err)

		requestID := middleware.GetRequestID(c)
		if requestID == "" {
			requestID = unknownRequestID
		}
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", code),
			zap.String("path", c.Path()),
			zap.Error(err),
		}

		if code >= http.StatusInternalServerError {
			log.Error("internal_server_error", fields...)
			message = msgInternalServer
		} else {
			log.Warn("client_error", fields...)
		}

		if err := handler.RespondError(c, code, errCode, message); err != nil {
			log.Error("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, string, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok || msg == "" {
			msg = fmt.Sprintf("%v", httpErr.Message)
		}
		return httpErr.Code, http.StatusText(httpErr.Code), msg
	}

	code := http.StatusInternalServerError
	errCode := apperrors.CodeInternalServer
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, errCode = http.StatusNotFound, apperrors.CodeNotFound
	case errors.Is(err, apperrors.ErrUnauthorized):
		code, errCode = http.StatusUnauthorized, apperrors.CodeUnauthorized
	case errors.Is(err, apperrors.ErrValidation):
		code, errCode = http.StatusBadRequest, apperrors.CodeValidation
	case errors.Is(err, apperrors.ErrBadRequest):
		code, errCode = http.StatusBadRequest, apperrors.CodeBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		code, errCode = http.StatusConflict, apperrors.CodeConflict
	case errors.Is(err, apperrors.ErrSystemTypeProtect):
		code, errCode = http.StatusForbidden, apperrors.CodeSystemType
	case errors.Is(err, apperrors.ErrBusiness):
		code, errCode = http.StatusUnprocessableEntity, apperrors.CodeBusiness
	case errors.Is(err, apperrors.ErrCanceled):
		code, errCode = http.StatusRequestTimeout, apperrors.CodeCanceled
	case errors.Is(err, apperrors.ErrTransport):
		code, errCode = http.StatusBadGateway, apperrors.CodeTransport
	}

	message := http.StatusText(code)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusBadRequest && errors.Is(err, apperrors.ErrBusiness) {
			code = appErr.Status
		}
		if appErr.Message != "" {
			message = appErr.Message
		}
	}
	return code, errCode, message
}
