package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSanitizeLogMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"authorization header", "Authorization: Bearer abc.def.ghi", "Authorization=[REDACTED]"},
		{"token pair", "token=xyz retry", "token=[REDACTED] retry"},
		{"api key", "api_key: k1", "api_key=[REDACTED]"},
		{"plain", "fetched 3 projects", "fetched 3 projects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeLogMessage(tt.in))
		})
	}
}

func TestSanitizeMap(t *testing.T) {
	got := SanitizeMap(map[string]any{
		"name":  "618",
		"Token": "abc",
		"s3":    map[string]any{"secret_access_key": "x", "bucket": "b"},
	})

	assert.Equal(t, "618", got["name"])
	assert.Equal(t, redactedPlaceholder, got["Token"])
	nested := got["s3"].(map[string]any)
	assert.Equal(t, redactedPlaceholder, nested["secret_access_key"])
	assert.Equal(t, "b", nested["bucket"])
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********wxyz", MaskToken("abcdefwxyz"))
	assert.Equal(t, "***", MaskToken("abc"))
}

func TestNewLevels(t *testing.T) {
	log, err := New(Options{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = New(Options{Level: "warn", Verbose: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}
