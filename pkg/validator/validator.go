package validator

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"

	apperrors "cps-console/pkg/errors"
)

const (
	maxImageSizeBytes = int64(1536 * 1024)
	asciiControlStart = 32
	asciiDelete       = 127

	errRequiredFmt      = "%s is required"
	errMaxLengthFmt     = "%s must not exceed %s characters"
	errMinLengthFmt     = "%s must be at least %s characters"
	errRangeMinFmt      = "%s must be at least %s"
	errRangeMaxFmt      = "%s must not exceed %s"
	errOneOfFmt         = "%s must be one of: %s"
	errInvalidFmt       = "%s is invalid"
	errValidationFailed = "validation failed"

	errURLInvalidFmt       = "content value must be a valid http(s) URL"
	errNameControlCharsFmt = "%s cannot contain control characters"
	errImageTypeFmt        = "file must be an image, got %q"
	errImageEmptyFmt       = "image file is empty"
	errImageSizeFmt        = "image size %d bytes exceeds maximum of %d bytes"
)

var (
	once     sync.Once
	validate *playground.Validate
)

func instance() *playground.Validate {
	once.Do(func() {
		validate = playground.New(playground.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct checks the validate tags of v. Failures are returned as a single
// validation AppError whose message lists every offending field.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation(errValidationFailed)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperrors.Validation(strings.Join(msgs, "; "))
}

func fieldMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(errRequiredFmt, field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf(errMaxLengthFmt, field, fe.Param())
		}
		return fmt.Sprintf(errRangeMaxFmt, field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf(errMinLengthFmt, field, fe.Param())
		}
		return fmt.Sprintf(errRangeMinFmt, field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf(errRangeMinFmt, field, fe.Param())
	case "oneof":
		return fmt.Sprintf(errOneOfFmt, field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf(errInvalidFmt, field)
	}
}

// Name rejects control characters in display names.
func Name(field, name string) error {
	for _, char := range name {
		if char < asciiControlStart || char == asciiDelete {
			return apperrors.Validation(fmt.Sprintf(errNameControlCharsFmt, field))
		}
	}
	return nil
}

// URL checks a url-typed content value.
func URL(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Validation(errURLInvalidFmt)
	}
	return nil
}

// Image checks an upload candidate. maxBytes of zero or less applies the
// default limit.
func Image(mimetype string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = maxImageSizeBytes
	}
	if !strings.HasPrefix(strings.ToLower(mimetype), "image/") {
		return apperrors.Validation(fmt.Sprintf(errImageTypeFmt, mimetype))
	}
	if size <= 0 {
		return apperrors.Validation(errImageEmptyFmt)
	}
	if size > maxBytes {
		return apperrors.Validation(fmt.Sprintf(errImageSizeFmt, size, maxBytes))
	}
	return nil
}

// DefaultMaxImageBytes is the upload size limit applied when none is set.
func DefaultMaxImageBytes() int64 {
	return maxImageSizeBytes
}
