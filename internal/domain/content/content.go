package content

import (
	"time"

	"cps-console/internal/domain/image"
	"cps-console/internal/expiry"
)

// FieldType decides how a content value is entered and validated.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldURL    FieldType = "url"
	FieldImage  FieldType = "image"
	FieldDate   FieldType = "date"
	FieldNumber FieldType = "number"
)

// ParseFieldType maps an arbitrary string to a known field type, falling
// back to text.
func ParseFieldType(s string) FieldType {
	switch FieldType(s) {
	case FieldText, FieldURL, FieldImage, FieldDate, FieldNumber:
		return FieldType(s)
	default:
		return FieldText
	}
}

// Type is a content type. System types cannot be deleted.
type Type struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FieldType   FieldType `json:"fieldType"`
	HasExpiry   bool      `json:"hasExpiry"`
	IsSystem    bool      `json:"isSystem"`
	Description string    `json:"description,omitempty"`
}

// Content is one typed value attached to a sub-project.
type Content struct {
	ID                  int64           `json:"id"`
	SubProjectID        int64           `json:"subProjectId"`
	ContentType         Type            `json:"contentType"`
	ContentValue        string          `json:"contentValue"`
	ExpiryDays          *int            `json:"expiryDays,omitempty"`
	ExpiryDate          string          `json:"expiryDate,omitempty"`
	ExpiryStatus        expiry.Status   `json:"expiryStatus"`
	UploadedImageID     *int64          `json:"uploadedImageId,omitempty"`
	UploadedImage       *image.Uploaded `json:"uploadedImage,omitempty"`
	ShowInDocumentation bool            `json:"showInDocumentation"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// TextCommand is a copyable promotion command that always expires.
type TextCommand struct {
	ID           int64         `json:"id"`
	SubProjectID int64         `json:"subProjectId"`
	CommandText  string        `json:"commandText"`
	ExpiryDays   int           `json:"expiryDays"`
	ExpiryDate   string        `json:"expiryDate"`
	ExpiryStatus expiry.Status `json:"expiryStatus"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Refresh recomputes the derived expiry status from the expiry date.
func (c *Content) Refresh(calc expiry.Calculator, now time.Time) {
	c.ExpiryStatus = calc.Status(c.ExpiryDate, now)
}

func (t *TextCommand) Refresh(calc expiry.Calculator, now time.Time) {
	t.ExpiryStatus = calc.Status(t.ExpiryDate, now)
}

type CreateTypeInput struct {
	Name        string    `json:"name" validate:"required,max=100"`
	FieldType   FieldType `json:"fieldType" validate:"required,oneof=text url image date number"`
	HasExpiry   bool      `json:"hasExpiry"`
	Description string    `json:"description,omitempty" validate:"max=1000"`
}

type UpdateTypeInput struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	FieldType   *FieldType `json:"fieldType,omitempty" validate:"omitempty,oneof=text url image date number"`
	HasExpiry   *bool      `json:"hasExpiry,omitempty"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
}

func (in UpdateTypeInput) Apply(t *Type) {
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.FieldType != nil {
		t.FieldType = ParseFieldType(string(*in.FieldType))
	}
	if in.HasExpiry != nil {
		t.HasExpiry = *in.HasExpiry
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
}

// SaveContentInput carries both create and update payloads for a content
// item; the backend resolves ContentTypeID to the embedded type.
type SaveContentInput struct {
	SubProjectID        int64  `json:"subProjectId" validate:"required,gt=0"`
	ContentTypeID       int64  `json:"contentTypeId" validate:"required,gt=0"`
	ContentValue        string `json:"contentValue" validate:"required"`
	ExpiryDays          *int   `json:"expiryDays,omitempty" validate:"omitempty,min=1,max=365"`
	UploadedImageID     *int64 `json:"uploadedImageId,omitempty"`
	ShowInDocumentation *bool  `json:"showInDocumentation,omitempty"`
}

type SaveTextCommandInput struct {
	ID           int64  `json:"-"`
	SubProjectID int64  `json:"subProjectId" validate:"required,gt=0"`
	CommandText  string `json:"commandText" validate:"required,max=500"`
	ExpiryDays   int    `json:"expiryDays" validate:"min=1,max=365"`
}

type BulkDeleteTextCommandsInput struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// Summary counts a sub-project's contents and how many of them are close to
// or past their expiry date.
type Summary struct {
	Total        int
	ExpiringSoon int
}
