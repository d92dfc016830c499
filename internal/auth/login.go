package auth

import (
	"strings"
	"time"

	apperrors "cps-console/pkg/errors"
)

// Authenticator exchanges operator credentials for a signed token.
type Authenticator struct {
	jwt       *JWTService
	operators map[string]string
}

// NewAuthenticator checks logins against operators, a map of operator name
// to bcrypt hash.
func NewAuthenticator(jwt *JWTService, operators map[string]string) *Authenticator {
	return &Authenticator{jwt: jwt, operators: operators}
}

// Login returns a token for operator and its expiry. Unknown operators and
// wrong passwords fail the same way.
func (a *Authenticator) Login(operator, password string) (string, time.Time, error) {
	operator = strings.TrimSpace(operator)
	hash, ok := a.operators[operator]
	if !ok || !VerifyPassword(password, hash) {
		return "", time.Time{}, apperrors.Unauthorized(msgInvalidCredentials)
	}

	expiresAt := a.jwt.now().Add(a.jwt.expiry)
	token, err := a.jwt.Issue(operator, a.jwt.expiry)
	if err != nil {
		return "", time.Time{}, apperrors.InternalServer(msgTokenIssueFailed, err)
	}
	return token, expiresAt, nil
}
