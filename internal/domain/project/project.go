package project

import (
	"strings"
	"time"
)

// Category groups projects.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SortOrder    int    `json:"sortOrder"`
	IsActive     bool   `json:"isActive"`
	ProjectCount int    `json:"projectCount"`
}

// Project is a marketing project. Deletion only clears IsActive.
type Project struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CategoryID         *int64    `json:"categoryId"`
	Category           *Category `json:"category,omitempty"`
	SubProjectCount    int       `json:"subProjectCount"`
	DocumentationCount int       `json:"documentationCount"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	IsActive           bool      `json:"isActive"`
}

type CreateProjectInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	CategoryID  *int64 `json:"categoryId,omitempty"`
}

type UpdateProjectInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	CategoryID  *int64  `json:"categoryId,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Apply patches p with the non-nil fields of the input.
func (in UpdateProjectInput) Apply(p *Project, now time.Time) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.CategoryID != nil {
		id := *in.CategoryID
		p.CategoryID = &id
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = now
}

// Matches reports whether the keyword occurs in the project's name or
// description, case-insensitively. An empty keyword matches everything.
func (p Project) Matches(keyword string) bool {
	query := strings.ToLower(strings.TrimSpace(keyword))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query)
}

// InCategory reports whether the project belongs to the category. A nil
// filter matches every project.
func (p Project) InCategory(categoryID *int64) bool {
	if categoryID == nil {
		return true
	}
	return p.CategoryID != nil && *p.CategoryID == *categoryID
}

type ListProjectsFilter struct {
	Keyword    string
	CategoryID *int64
	Page       int
	Limit      int
}

type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	SortOrder   *int    `json:"sortOrder,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (in UpdateCategoryInput) Apply(c *Category) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

// Summary is the dashboard view over active projects.
type Summary struct {
	Total     int
	UpdatedAt time.Time
}
