package logger

import (
	"regexp"
	"strings"
)

var (
	authHeaderPattern = regexp.MustCompile(`(?i)(authorization)[\s:=]+(bearer\s+)?[^\s,]+`)
	tokenPattern      = regexp.MustCompile(`(?i)(token|jwt|bearer)[\s:=]+[^\s,]+`)
	apiKeyPattern     = regexp.MustCompile(`(?i)(api[_-]?key|apikey)[\s:=]+[^\s,]+`)
	secretPattern     = regexp.MustCompile(`(?i)(secret|access[_-]?key|private[_-]?key)[\s:=]+[^\s,]+`)
)

const redactedPlaceholder = "[REDACTED]"

var sensitiveKeys = []string{
	"authorization",
	"token", "jwt", "bearer",
	"api_key", "apikey", "api-key",
	"secret", "access_key", "accesskey",
	"private_key", "private-key",
}

// SanitizeLogMessage redacts bearer tokens, API keys and secrets from
// free-form text such as request dumps or error bodies.
func SanitizeLogMessage(message string) string {
	message = authHeaderPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = tokenPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = apiKeyPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	return message
}

// SanitizeMap returns a copy of data with sensitive keys redacted. Nested
// objects are sanitized too.
func SanitizeMap(data map[string]any) map[string]any {
	sanitized := make(map[string]any, len(data))
	for k, v := range data {
		if isSensitiveKey(k) {
			sanitized[k] = redactedPlaceholder
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			sanitized[k] = SanitizeMap(nested)
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

// MaskToken keeps the last four characters of a token for display.
func MaskToken(token string) string {
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-visible:]
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
