package errors

import (
	"errors"
	"fmt"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrNotFound          = errors.New("resource not found")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("resource already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternalServer    = errors.New("internal server error")
	ErrValidation        = errors.New("validation error")
	ErrBusiness          = errors.New("request rejected by server")
	ErrTransport         = errors.New("transport failure")
	ErrCanceled          = errors.New("request canceled")
	ErrSystemTypeProtect = errors.New("system type not deletable")
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeBadRequest     = "BAD_REQUEST"
	CodeConflict       = "CONFLICT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternalServer = "INTERNAL_SERVER_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeBusiness       = "BUSINESS_REJECTED"
	CodeTransport      = "TRANSPORT_ERROR"
	CodeCanceled       = "CANCELED"
	CodeSystemType     = "SYSTEM_TYPE_PROTECTED"
)

// Custom error type with context
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructors
func NotFound(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg, Err: ErrNotFound}
}

func BadRequest(msg string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: msg, Err: ErrBadRequest}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Err: ErrConflict}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Err: ErrUnauthorized}
}

func InternalServer(msg string, err error) *AppError {
	return &AppError{Code: CodeInternalServer, Message: msg, Err: err}
}

func Validation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Err: ErrValidation}
}

// Business wraps a success:false envelope or a 4xx response. The message is
// the server-provided one and is meant to be shown by the caller.
func Business(msg string, status int) *AppError {
	return &AppError{Code: CodeBusiness, Message: msg, Status: status, Err: ErrBusiness}
}

func Transport(msg string, status int, err error) *AppError {
	if err == nil {
		err = ErrTransport
	} else {
		err = fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return &AppError{Code: CodeTransport, Message: msg, Status: status, Err: err}
}

func Canceled() *AppError {
	return &AppError{Code: CodeCanceled, Message: ErrCanceled.Error(), Err: ErrCanceled}
}

func SystemTypeProtected() *AppError {
	return &AppError{Code: CodeSystemType, Message: ErrSystemTypeProtect.Error(), Err: ErrSystemTypeProtect}
}

// IsCanceled reports whether err stems from a superseded or aborted request.
// Callers treat it as a non-failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Message returns the user-facing message carried by err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
