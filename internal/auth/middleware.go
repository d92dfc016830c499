package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "cps-console/pkg/errors"
)

type Middleware struct {
	jwtService *JWTService
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(jwtService *JWTService) *Middleware {
	return &Middleware{jwtService: jwtService}
}

// RequireJWT rejects requests without a valid operator token. The rejection
// is returned as an error so the server's error handler renders it.
func (m *Middleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return apperrors.Unauthorized(msgMissingAuthorization)
			}

			claims, err := m.jwtService.Verify(token)
			if err != nil {
				c.Logger().Debugf("operator token rejected: %v", err)
				return apperrors.Unauthorized(msgInvalidOrExpiredToken)
			}

			c.Set(ContextKeyOperator, claims.Subject)
			c.Set(ContextKeyClaims, claims)

			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

// Operator returns the authenticated operator name, or "" on open routes.
func Operator(c echo.Context) string {
	name, _ := c.Get(ContextKeyOperator).(string)
	return name
}
