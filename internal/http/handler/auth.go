package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"cps-console/pkg/validator"
)

// Authenticator exchanges operator credentials for a bearer token.
type Authenticator interface {
	Login(operator, password string) (string, time.Time, error)
}

type AuthHandler struct {
	authenticator Authenticator
}

func NewAuthHandler(authenticator Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

type loginRequest struct {
	Operator string `json:"operator" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	req.Operator = strings.TrimSpace(req.Operator)
	if err := validator.Struct(&req); err != nil {
		return err
	}

	token, expiresAt, err := h.authenticator.Login(req.Operator, req.Password)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
