package store

import (
	"context"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
)

// Mutations returning a nil entity with a nil error mean the backend
// accepted the change without echoing the record back.

// ProjectBackend serves project reads and writes.
type ProjectBackend interface {
	ListProjects(ctx context.Context, filter project.ListProjectsFilter) ([]project.Project, int, error)
	GetProject(ctx context.Context, id int64) (*project.Project, error)
	CreateProject(ctx context.Context, in project.CreateProjectInput) (*project.Project, error)
	UpdateProject(ctx context.Context, id int64, in project.UpdateProjectInput) (*project.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// CategoryBackend serves project categories.
type CategoryBackend interface {
	ListCategories(ctx context.Context) ([]project.Category, error)
	CreateCategory(ctx context.Context, in project.CreateCategoryInput) (*project.Category, error)
	UpdateCategory(ctx context.Context, id int64, in project.UpdateCategoryInput) (*project.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// SubProjectBackend serves sub-projects and their ordering.
type SubProjectBackend interface {
	ListSubProjects(ctx context.Context, projectID int64) ([]subproject.SubProject, error)
	GetSubProject(ctx context.Context, id int64) (*subproject.SubProject, error)
	CreateSubProject(ctx context.Context, in subproject.CreateSubProjectInput) (*subproject.SubProject, error)
	UpdateSubProject(ctx context.Context, id int64, in subproject.UpdateSubProjectInput) (*subproject.SubProject, error)
	DeleteSubProject(ctx context.Context, id int64) error
	ReorderSubProjects(ctx context.Context, items []subproject.SortOrderItem) ([]subproject.SubProject, error)
}

// ContentBackend serves content types, content items and text commands.
type ContentBackend interface {
	ListContentTypes(ctx context.Context) ([]content.Type, error)
	CreateContentType(ctx context.Context, in content.CreateTypeInput) (*content.Type, error)
	UpdateContentType(ctx context.Context, id int64, in content.UpdateTypeInput) (*content.Type, error)
	DeleteContentType(ctx context.Context, id int64) error

	CreateContent(ctx context.Context, in content.SaveContentInput) (*content.Content, error)
	UpdateContent(ctx context.Context, id int64, in content.SaveContentInput) (*content.Content, error)
	DeleteContent(ctx context.Context, id int64) error

	CreateTextCommand(ctx context.Context, in content.SaveTextCommandInput) (*content.TextCommand, error)
	UpdateTextCommand(ctx context.Context, id int64, in content.SaveTextCommandInput) (*content.TextCommand, error)
	DeleteTextCommand(ctx context.Context, id int64) error
	BulkDeleteTextCommands(ctx context.Context, in content.BulkDeleteTextCommandsInput) error
}

// DocumentationBackend lists and regenerates documentation.
type DocumentationBackend interface {
	ListDocumentation(ctx context.Context, filters docentry.Filters) (docentry.Listing, error)
	GenerateDocumentation(ctx context.Context, in docentry.GenerateInput) error
}

// ImageBackend records and lists uploaded images.
type ImageBackend interface {
	SaveUploadedImage(ctx context.Context, in image.SaveInput) (*image.Uploaded, error)
	ListUploadedImages(ctx context.Context) ([]image.Uploaded, error)
}

// Backend is everything the console stores talk to.
type Backend interface {
	ProjectBackend
	CategoryBackend
	SubProjectBackend
	ContentBackend
	DocumentationBackend
	ImageBackend
}
