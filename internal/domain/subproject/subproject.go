package subproject

import (
	"sort"
	"time"

	"cps-console/internal/domain/content"
	"cps-console/internal/expiry"
)

// SubProject is one deliverable of a project, ordered by SortOrder.
type SubProject struct {
	ID                       int64                 `json:"id"`
	ProjectID                int64                 `json:"projectId"`
	Name                     string                `json:"name"`
	Description              string                `json:"description"`
	SortOrder                int                   `json:"sortOrder"`
	DocumentationEnabled     bool                  `json:"documentationEnabled"`
	DocumentationGeneratedAt *time.Time            `json:"documentationGeneratedAt"`
	Contents                 []content.Content     `json:"contents"`
	TextCommands             []content.TextCommand `json:"textCommands"`
	CreatedAt                time.Time             `json:"createdAt"`
	UpdatedAt                time.Time             `json:"updatedAt"`
	IsActive                 bool                  `json:"isActive"`
}

// Clone returns a copy that shares no slices with s.
func (s SubProject) Clone() SubProject {
	out := s
	out.Contents = make([]content.Content, len(s.Contents))
	copy(out.Contents, s.Contents)
	out.TextCommands = make([]content.TextCommand, len(s.TextCommands))
	copy(out.TextCommands, s.TextCommands)
	if s.DocumentationGeneratedAt != nil {
		at := *s.DocumentationGeneratedAt
		out.DocumentationGeneratedAt = &at
	}
	return out
}

// UpsertContent replaces the content with the same ID or appends it.
func (s *SubProject) UpsertContent(c content.Content) {
	for i := range s.Contents {
		if s.Contents[i].ID == c.ID {
			s.Contents[i] = c
			s.UpdatedAt = c.UpdatedAt
			return
		}
	}
	s.Contents = append(s.Contents, c)
	s.UpdatedAt = c.UpdatedAt
}

func (s *SubProject) RemoveContent(id int64, now time.Time) bool {
	for i := range s.Contents {
		if s.Contents[i].ID == id {
			s.Contents = append(s.Contents[:i], s.Contents[i+1:]...)
			s.UpdatedAt = now
			return true
		}
	}
	return false
}

func (s *SubProject) UpsertTextCommand(cmd content.TextCommand) {
	for i := range s.TextCommands {
		if s.TextCommands[i].ID == cmd.ID {
			s.TextCommands[i] = cmd
			s.UpdatedAt = cmd.UpdatedAt
			return
		}
	}
	s.TextCommands = append(s.TextCommands, cmd)
	s.UpdatedAt = cmd.UpdatedAt
}

func (s *SubProject) RemoveTextCommand(id int64, now time.Time) bool {
	for i := range s.TextCommands {
		if s.TextCommands[i].ID == id {
			s.TextCommands = append(s.TextCommands[:i], s.TextCommands[i+1:]...)
			s.UpdatedAt = now
			return true
		}
	}
	return false
}

// Refresh recomputes every derived expiry status.
func (s *SubProject) Refresh(calc expiry.Calculator, now time.Time) {
	for i := range s.Contents {
		s.Contents[i].Refresh(calc, now)
	}
	for i := range s.TextCommands {
		s.TextCommands[i].Refresh(calc, now)
	}
}

// SortByOrder sorts in place by ascending SortOrder, breaking ties by ID.
func SortByOrder(items []SubProject) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
}

// SortOrderItem assigns one sub-project its position.
type SortOrderItem struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sortOrder"`
}

// OrderFromIDs assigns contiguous 1-based sort orders following ids.
func OrderFromIDs(ids []int64) []SortOrderItem {
	items := make([]SortOrderItem, len(ids))
	for i, id := range ids {
		items[i] = SortOrderItem{ID: id, SortOrder: i + 1}
	}
	return items
}

type CreateSubProjectInput struct {
	ProjectID            int64  `json:"projectId" validate:"required,gt=0"`
	Name                 string `json:"name" validate:"required,max=255"`
	Description          string `json:"description,omitempty" validate:"max=1000"`
	SortOrder            int    `json:"sortOrder" validate:"gte=0"`
	DocumentationEnabled bool   `json:"enableDocumentation"`
}

type UpdateSubProjectInput struct {
	Name                 *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description          *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	SortOrder            *int    `json:"sortOrder,omitempty" validate:"omitempty,gte=0"`
	DocumentationEnabled *bool   `json:"enableDocumentation,omitempty"`
	IsActive             *bool   `json:"isActive,omitempty"`
}

func (in UpdateSubProjectInput) Apply(s *SubProject, now time.Time) {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.SortOrder != nil {
		s.SortOrder = *in.SortOrder
	}
	if in.DocumentationEnabled != nil {
		s.DocumentationEnabled = *in.DocumentationEnabled
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	s.UpdatedAt = now
}

type ReorderInput struct {
	Items []SortOrderItem `json:"items" validate:"required,min=1,dive"`
}

// Stats aggregates active sub-projects.
type Stats struct {
	Total        int `json:"total"`
	ContentTotal int `json:"contentTotal"`
	CommandTotal int `json:"commandTotal"`
}

func ComputeStats(items []SubProject) Stats {
	var st Stats
	for _, s := range items {
		if !s.IsActive {
			continue
		}
		st.Total++
		st.ContentTotal += len(s.Contents)
		st.CommandTotal += len(s.TextCommands)
	}
	return st
}
