package memory

import (
	"context"
	"strings"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	apperrors "cps-console/pkg/errors"
)

func (b *Backend) ListSubProjects(_ context.Context, projectID int64) ([]subproject.SubProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listSubProjects(projectID), nil
}

func (b *Backend) listSubProjects(projectID int64) []subproject.SubProject {
	out := make([]subproject.SubProject, 0)
	for _, s := range b.subProjects {
		if s.ProjectID == projectID && s.IsActive {
			out = append(out, b.hydrate(s))
		}
	}
	subproject.SortByOrder(out)
	return out
}

func (b *Backend) GetSubProject(_ context.Context, id int64) (*subproject.SubProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.subProjectIndex(id)
	if i < 0 || !b.subProjects[i].IsActive {
		return nil, apperrors.NotFound(msgSubProjectNotFound)
	}
	s := b.hydrate(b.subProjects[i])
	return &s, nil
}

func (b *Backend) CreateSubProject(_ context.Context, in subproject.CreateSubProjectInput) (*subproject.SubProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.projectIndex(in.ProjectID); i < 0 || !b.projects[i].IsActive {
		return nil, apperrors.BadRequest(msgProjectNotFound)
	}
	sortOrder := in.SortOrder
	if sortOrder <= 0 {
		sortOrder = b.nextSortOrder(in.ProjectID)
	}

	now := b.now()
	b.ids.subProject++
	s := subproject.SubProject{
		ID:                   b.ids.subProject,
		ProjectID:            in.ProjectID,
		Name:                 strings.TrimSpace(in.Name),
		Description:          in.Description,
		SortOrder:            sortOrder,
		DocumentationEnabled: in.DocumentationEnabled,
		Contents:             []content.Content{},
		TextCommands:         []content.TextCommand{},
		CreatedAt:            now,
		UpdatedAt:            now,
		IsActive:             true,
	}
	b.subProjects = append(b.subProjects, s)
	b.touchProject(in.ProjectID)
	out := b.hydrate(s)
	return &out, nil
}

func (b *Backend) UpdateSubProject(_ context.Context, id int64, in subproject.UpdateSubProjectInput) (*subproject.SubProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.subProjectIndex(id)
	if i < 0 {
		return nil, apperrors.NotFound(msgSubProjectNotFound)
	}
	in.Apply(&b.subProjects[i], b.now())
	b.touchProject(b.subProjects[i].ProjectID)
	out := b.hydrate(b.subProjects[i])
	return &out, nil
}

func (b *Backend) DeleteSubProject(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.subProjectIndex(id)
	if i < 0 || !b.subProjects[i].IsActive {
		return apperrors.NotFound(msgSubProjectNotFound)
	}
	b.subProjects[i].IsActive = false
	b.subProjects[i].UpdatedAt = b.now()
	b.touchProject(b.subProjects[i].ProjectID)
	return nil
}

// ReorderSubProjects applies the given sort orders and returns the
// reordered project's sub-projects.
func (b *Backend) ReorderSubProjects(_ context.Context, items []subproject.SortOrderItem) ([]subproject.SubProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(items) == 0 {
		return []subproject.SubProject{}, nil
	}
	for _, item := range items {
		if b.subProjectIndex(item.ID) < 0 {
			return nil, apperrors.NotFound(msgSubProjectNotFound)
		}
	}
	now := b.now()
	var projectID int64
	for _, item := range items {
		s := &b.subProjects[b.subProjectIndex(item.ID)]
		s.SortOrder = item.SortOrder
		s.UpdatedAt = now
		projectID = s.ProjectID
	}
	return b.listSubProjects(projectID), nil
}

func (b *Backend) ListContentTypes(context.Context) ([]content.Type, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]content.Type(nil), b.contentTypes...), nil
}

func (b *Backend) CreateContentType(_ context.Context, in content.CreateTypeInput) (*content.Type, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ids.contentType++
	t := content.Type{
		ID:          b.ids.contentType,
		Name:        strings.TrimSpace(in.Name),
		FieldType:   content.ParseFieldType(string(in.FieldType)),
		HasExpiry:   in.HasExpiry,
		Description: in.Description,
	}
	b.contentTypes = append(b.contentTypes, t)
	return &t, nil
}

func (b *Backend) UpdateContentType(_ context.Context, id int64, in content.UpdateTypeInput) (*content.Type, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.contentTypeIndex(id)
	if i < 0 {
		return nil, apperrors.NotFound(msgContentTypeNotFound)
	}
	in.Apply(&b.contentTypes[i])
	t := b.contentTypes[i]
	return &t, nil
}

func (b *Backend) DeleteContentType(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.contentTypeIndex(id)
	if i < 0 {
		return apperrors.NotFound(msgContentTypeNotFound)
	}
	if b.contentTypes[i].IsSystem {
		return apperrors.SystemTypeProtected()
	}
	for _, s := range b.subProjects {
		for _, c := range s.Contents {
			if c.ContentType.ID == id {
				return apperrors.Conflict(msgContentTypeInUse)
			}
		}
	}
	b.contentTypes = append(b.contentTypes[:i], b.contentTypes[i+1:]...)
	return nil
}

func (b *Backend) CreateContent(_ context.Context, in content.SaveContentInput) (*content.Content, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	si := b.subProjectIndex(in.SubProjectID)
	if si < 0 || !b.subProjects[si].IsActive {
		return nil, apperrors.BadRequest(msgSubProjectNotFound)
	}
	ti := b.contentTypeIndex(in.ContentTypeID)
	if ti < 0 {
		return nil, apperrors.BadRequest(msgContentTypeNotFound)
	}

	now := b.now()
	b.ids.content++
	c := content.Content{
		ID:                  b.ids.content,
		SubProjectID:        in.SubProjectID,
		ShowInDocumentation: true,
		CreatedAt:           now,
	}
	b.applyContent(&c, in, b.contentTypes[ti])
	b.subProjects[si].UpsertContent(c)
	out := b.hydrateContent(c)
	return &out, nil
}

func (b *Backend) UpdateContent(_ context.Context, id int64, in content.SaveContentInput) (*content.Content, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	si, ci := b.contentIndex(id)
	if ci < 0 {
		return nil, apperrors.NotFound(msgContentNotFound)
	}
	ti := b.contentTypeIndex(in.ContentTypeID)
	if ti < 0 {
		return nil, apperrors.BadRequest(msgContentTypeNotFound)
	}
	c := b.subProjects[si].Contents[ci]
	b.applyContent(&c, in, b.contentTypes[ti])
	b.subProjects[si].UpsertContent(c)
	out := b.hydrateContent(c)
	return &out, nil
}

func (b *Backend) applyContent(c *content.Content, in content.SaveContentInput, t content.Type) {
	now := b.now()
	c.ContentType = t
	c.ContentValue = in.ContentValue
	c.ExpiryDays = nil
	c.ExpiryDate = ""
	if in.ExpiryDays != nil {
		days := *in.ExpiryDays
		c.ExpiryDays = &days
		c.ExpiryDate = expiry.DateAfter(days, now)
	}
	c.UploadedImageID = copyID(in.UploadedImageID)
	if in.ShowInDocumentation != nil {
		c.ShowInDocumentation = *in.ShowInDocumentation
	}
	c.UpdatedAt = now
}

func (b *Backend) DeleteContent(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	si, ci := b.contentIndex(id)
	if ci < 0 {
		return apperrors.NotFound(msgContentNotFound)
	}
	b.subProjects[si].RemoveContent(id, b.now())
	return nil
}

func (b *Backend) CreateTextCommand(_ context.Context, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	si := b.subProjectIndex(in.SubProjectID)
	if si < 0 || !b.subProjects[si].IsActive {
		return nil, apperrors.BadRequest(msgSubProjectNotFound)
	}
	now := b.now()
	b.ids.command++
	cmd := content.TextCommand{
		ID:           b.ids.command,
		SubProjectID: in.SubProjectID,
		CreatedAt:    now,
	}
	b.applyCommand(&cmd, in)
	b.subProjects[si].UpsertTextCommand(cmd)
	return &cmd, nil
}

func (b *Backend) UpdateTextCommand(_ context.Context, id int64, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	si, ci := b.commandIndex(id)
	if ci < 0 {
		return nil, apperrors.NotFound(msgCommandNotFound)
	}
	cmd := b.subProjects[si].TextCommands[ci]
	b.applyCommand(&cmd, in)
	b.subProjects[si].UpsertTextCommand(cmd)
	return &cmd, nil
}

func (b *Backend) applyCommand(cmd *content.TextCommand, in content.SaveTextCommandInput) {
	now := b.now()
	cmd.CommandText = strings.TrimSpace(in.CommandText)
	cmd.ExpiryDays = in.ExpiryDays
	cmd.ExpiryDate = expiry.DateAfter(in.ExpiryDays, now)
	cmd.UpdatedAt = now
	cmd.Refresh(b.calc, now)
}

func (b *Backend) DeleteTextCommand(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	si, ci := b.commandIndex(id)
	if ci < 0 {
		return apperrors.NotFound(msgCommandNotFound)
	}
	b.subProjects[si].RemoveTextCommand(id, b.now())
	return nil
}

// BulkDeleteTextCommands removes every listed command that exists. Unknown
// ids are ignored.
func (b *Backend) BulkDeleteTextCommands(_ context.Context, in content.BulkDeleteTextCommandsInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, id := range in.IDs {
		if si, ci := b.commandIndex(id); ci >= 0 {
			b.subProjects[si].RemoveTextCommand(id, now)
		}
	}
	return nil
}

// hydrate returns a detached copy with derived fields filled in.
func (b *Backend) hydrate(s subproject.SubProject) subproject.SubProject {
	out := s.Clone()
	for i := range out.Contents {
		out.Contents[i] = b.hydrateContent(out.Contents[i])
	}
	out.Refresh(b.calc, b.now())
	return out
}

func (b *Backend) hydrateContent(c content.Content) content.Content {
	c.ExpiryDays = copyInt(c.ExpiryDays)
	c.UploadedImageID = copyID(c.UploadedImageID)
	c.UploadedImage = nil
	if c.UploadedImageID != nil {
		for _, img := range b.images {
			if img.ID == *c.UploadedImageID {
				found := img
				c.UploadedImage = &found
				break
			}
		}
	}
	c.Refresh(b.calc, b.now())
	return c
}

func (b *Backend) touchProject(id int64) {
	if i := b.projectIndex(id); i >= 0 {
		b.projects[i].UpdatedAt = b.now()
	}
}

func (b *Backend) nextSortOrder(projectID int64) int {
	highest := 0
	for _, s := range b.subProjects {
		if s.ProjectID == projectID && s.IsActive && s.SortOrder > highest {
			highest = s.SortOrder
		}
	}
	return highest + 1
}

func (b *Backend) subProjectIndex(id int64) int {
	for i, s := range b.subProjects {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) contentTypeIndex(id int64) int {
	for i, t := range b.contentTypes {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) contentIndex(id int64) (int, int) {
	for si, s := range b.subProjects {
		for ci, c := range s.Contents {
			if c.ID == id {
				return si, ci
			}
		}
	}
	return -1, -1
}

func (b *Backend) commandIndex(id int64) (int, int) {
	for si, s := range b.subProjects {
		for ci, cmd := range s.TextCommands {
			if cmd.ID == id {
				return si, ci
			}
		}
	}
	return -1, -1
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
