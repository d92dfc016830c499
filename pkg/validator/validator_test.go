package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/project"
	apperrors "cps-console/pkg/errors"
)

func TestStructMessages(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr string
	}{
		{"valid project", project.CreateProjectInput{Name: "618 大促项目"}, ""},
		{"missing name", project.CreateProjectInput{}, "name is required"},
		{"long name", project.CreateProjectInput{Name: strings.Repeat("名", 256)}, "name must not exceed 255 characters"},
		{"255 runes ok", project.CreateProjectInput{Name: strings.Repeat("名", 255)}, ""},
		{"long category", project.CreateCategoryInput{Name: strings.Repeat("a", 101)}, "name must not exceed 100 characters"},
		{"command too long", content.SaveTextCommandInput{SubProjectID: 1, CommandText: strings.Repeat("x", 501), ExpiryDays: 3}, "commandText must not exceed 500 characters"},
		{"expiry days low", content.SaveTextCommandInput{SubProjectID: 1, CommandText: "x", ExpiryDays: 0}, "expiryDays must be at least 1"},
		{"expiry days high", content.SaveTextCommandInput{SubProjectID: 1, CommandText: "x", ExpiryDays: 366}, "expiryDays must not exceed 365"},
		{"bad field type", content.CreateTypeInput{Name: "t", FieldType: "video"}, "fieldType must be one of: text, url, image, date, number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestURL(t *testing.T) {
	assert.NoError(t, URL("https://cps.example.com/short/abc123"))
	assert.Error(t, URL("cps.example.com"))
	assert.Error(t, URL("ftp://example.com"))
}

func TestImage(t *testing.T) {
	assert.NoError(t, Image("image/png", 1024, 0))
	assert.Error(t, Image("text/plain", 10, 0))
	assert.Error(t, Image("image/png", 0, 0))
	assert.Error(t, Image("image/png", DefaultMaxImageBytes()+1, 0))
	assert.NoError(t, Image("image/png", DefaultMaxImageBytes()+1, DefaultMaxImageBytes()*2))
}

func TestName(t *testing.T) {
	assert.NoError(t, Name("name", "数码家电"))
	assert.Error(t, Name("name", "bad\x00name"))
}
