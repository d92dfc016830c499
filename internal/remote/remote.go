// Package remote implements the store backends over the console REST API.
// Every response passes through the normalization layer before it reaches
// a store.
package remote

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/apiclient"
	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	"cps-console/internal/normalize"
)

const (
	pathProjects         = "/projects"
	pathCategories       = "/project-categories"
	pathSubProjects      = "/sub-projects"
	pathReorder          = "/sub-projects/reorder"
	pathContentTypes     = "/content-types"
	pathContents         = "/contents"
	pathTextCommands     = "/text-commands"
	pathBulkDelete       = "/text-commands/bulk-delete"
	pathDocumentation    = "/documentation"
	pathGenerateDocs     = "/documentation/generate"
	pathUploadedImages   = "/uploaded-images"
	dedupeDocumentation  = "documentation"
	dedupeProjectListing = "projects"
)

// Requester is the slice of the transport client the backend needs.
type Requester interface {
	Get(ctx context.Context, path string, opts ...apiclient.RequestOption) (any, error)
	Post(ctx context.Context, path string, body any, opts ...apiclient.RequestOption) (any, error)
	Put(ctx context.Context, path string, body any, opts ...apiclient.RequestOption) (any, error)
	Delete(ctx context.Context, path string, opts ...apiclient.RequestOption) (any, error)
}

// Backend serves every store backend interface over the REST API.
type Backend struct {
	api  Requester
	log  *zap.Logger
	now  func() time.Time
	calc expiry.Calculator
}

// Option configures a Backend.
type Option func(*Backend)

func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) { b.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithThresholds sets the day counts expiry statuses are derived with.
func WithThresholds(t expiry.Thresholds) Option {
	return func(b *Backend) { b.calc = expiry.NewCalculator(t) }
}

// New creates a new remote backend sending requests through api.
func New(api Requester, opts ...Option) *Backend {
	b := &Backend{api: api, log: zap.NewNop(), now: time.Now, calc: expiry.Default}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) ListProjects(ctx context.Context, filter project.ListProjectsFilter) ([]project.Project, int, error) {
	q := url.Values{}
	if filter.Keyword != "" {
		q.Set("keyword", filter.Keyword)
	}
	if filter.CategoryID != nil {
		q.Set("categoryId", itoa(*filter.CategoryID))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	data, err := b.api.Get(ctx, pathProjects, apiclient.WithQuery(q), apiclient.WithDedupeKey(dedupeProjectListing))
	if err != nil {
		return nil, 0, err
	}
	now := b.now()
	records := normalize.List(data)
	out := make([]project.Project, 0, len(records))
	for _, r := range records {
		out = append(out, normalize.Project(r, now))
	}
	total := len(out)
	if meta, ok := normalize.Pagination(data); ok && meta.Total > 0 {
		total = meta.Total
	}
	return out, total, nil
}

func (b *Backend) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	data, err := b.api.Get(ctx, pathProjects+"/"+itoa(id))
	if err != nil {
		return nil, err
	}
	return projectFrom(data, b.now()), nil
}

func (b *Backend) CreateProject(ctx context.Context, in project.CreateProjectInput) (*project.Project, error) {
	data, err := b.api.Post(ctx, pathProjects, in)
	if err != nil {
		return nil, err
	}
	return projectFrom(data, b.now()), nil
}

func (b *Backend) UpdateProject(ctx context.Context, id int64, in project.UpdateProjectInput) (*project.Project, error) {
	data, err := b.api.Put(ctx, pathProjects+"/"+itoa(id), in)
	if err != nil {
		return nil, err
	}
	return projectFrom(data, b.now()), nil
}

func (b *Backend) DeleteProject(ctx context.Context, id int64) error {
	_, err := b.api.Delete(ctx, pathProjects+"/"+itoa(id))
	return err
}

func (b *Backend) ListCategories(ctx context.Context) ([]project.Category, error) {
	data, err := b.api.Get(ctx, pathCategories)
	if err != nil {
		return nil, err
	}
	records := normalize.List(data)
	out := make([]project.Category, 0, len(records))
	for _, r := range records {
		out = append(out, normalize.Category(r))
	}
	return out, nil
}

func (b *Backend) CreateCategory(ctx context.Context, in project.CreateCategoryInput) (*project.Category, error) {
	data, err := b.api.Post(ctx, pathCategories, in)
	if err != nil {
		return nil, err
	}
	return categoryFrom(data), nil
}

func (b *Backend) UpdateCategory(ctx context.Context, id int64, in project.UpdateCategoryInput) (*project.Category, error) {
	data, err := b.api.Put(ctx, pathCategories+"/"+itoa(id), in)
	if err != nil {
		return nil, err
	}
	return categoryFrom(data), nil
}

func (b *Backend) DeleteCategory(ctx context.Context, id int64) error {
	_, err := b.api.Delete(ctx, pathCategories+"/"+itoa(id))
	return err
}

func (b *Backend) ListDocumentation(ctx context.Context, filters docentry.Filters) (docentry.Listing, error) {
	filters = filters.Normalized()
	q := url.Values{}
	if filters.CategoryID != nil {
		q.Set("categoryId", itoa(*filters.CategoryID))
	}
	if filters.ProjectID != nil {
		q.Set("projectId", itoa(*filters.ProjectID))
	}
	if filters.Keyword != "" {
		q.Set("keyword", filters.Keyword)
	}

	data, err := b.api.Get(ctx, pathDocumentation, apiclient.WithQuery(q), apiclient.WithDedupeKey(dedupeDocumentation))
	if err != nil {
		return docentry.Listing{}, err
	}
	return normalize.DocumentationListing(data, b.now()), nil
}

func (b *Backend) GenerateDocumentation(ctx context.Context, in docentry.GenerateInput) error {
	_, err := b.api.Post(ctx, pathGenerateDocs, in)
	return err
}

func (b *Backend) SaveUploadedImage(ctx context.Context, in image.SaveInput) (*image.Uploaded, error) {
	data, err := b.api.Post(ctx, pathUploadedImages, in)
	if err != nil {
		return nil, err
	}
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil, nil
	}
	img := normalize.UploadedImage(r)
	return &img, nil
}

func (b *Backend) ListUploadedImages(ctx context.Context) ([]image.Uploaded, error) {
	data, err := b.api.Get(ctx, pathUploadedImages)
	if err != nil {
		return nil, err
	}
	records := normalize.List(data)
	out := make([]image.Uploaded, 0, len(records))
	for _, r := range records {
		out = append(out, normalize.UploadedImage(r))
	}
	return out, nil
}

func projectFrom(data any, now time.Time) *project.Project {
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil
	}
	p := normalize.Project(r, now)
	return &p
}

func categoryFrom(data any) *project.Category {
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil
	}
	c := normalize.Category(r)
	return &c
}

func subProjectFrom(data any, calc expiry.Calculator, now time.Time) *subproject.SubProject {
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil
	}
	s := normalize.SubProject(r, calc, now)
	return &s
}

func contentFrom(data any, calc expiry.Calculator, now time.Time) *content.Content {
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil
	}
	c := normalize.Content(r, calc, now)
	return &c
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
