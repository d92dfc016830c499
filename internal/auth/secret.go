package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// DefaultSecretBytes yields a 43 character AUTH_JWT_SECRET.
	DefaultSecretBytes        = 32
	minSecretBytes            = 24
	errGenerateRandomBytesFmt = "failed to generate random bytes: %w"
	errSecretTooShortFmt      = "secret needs at least %d random bytes"
)

// GenerateSecret returns byteLength random bytes, URL-safe base64 encoded
// without padding.
func GenerateSecret(byteLength int) (string, error) {
	if byteLength < minSecretBytes {
		return "", fmt.Errorf(errSecretTooShortFmt, minSecretBytes)
	}

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf(errGenerateRandomBytesFmt, err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
