// Package memory is an in-process backend holding the console's data in
// memory. It backs the demo mode of the console and the reference server
// when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cps-console/internal/docgen"
	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	"cps-console/internal/view"
	apperrors "cps-console/pkg/errors"
)

const (
	msgProjectNotFound     = "项目不存在"
	msgCategoryNotFound    = "分类不存在"
	msgSubProjectNotFound  = "子项目不存在"
	msgContentTypeNotFound = "内容类型不存在"
	msgContentNotFound     = "内容不存在"
	msgCommandNotFound     = "口令不存在"
	msgContentTypeInUse    = "内容类型正在使用中"
	msgNothingToGenerate   = "没有可生成文档的子项目"
)

type counters struct {
	category    int64
	project     int64
	subProject  int64
	contentType int64
	content     int64
	command     int64
	image       int64
}

// Backend is safe for concurrent use. Every value it returns is a copy.
type Backend struct {
	mu   sync.Mutex
	now  func() time.Time
	calc expiry.Calculator
	ids  counters

	categories    []project.Category
	projects      []project.Project
	subProjects   []subproject.SubProject
	contentTypes  []content.Type
	images        []image.Uploaded
	lastGenerated *time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithThresholds sets the day counts expiry statuses are derived with.
func WithThresholds(t expiry.Thresholds) Option {
	return func(b *Backend) { b.calc = expiry.NewCalculator(t) }
}

// New returns an empty backend seeded only with the system content types.
func New(opts ...Option) *Backend {
	b := &Backend{now: time.Now, calc: expiry.Default}
	for _, opt := range opts {
		opt(b)
	}
	b.contentTypes = systemContentTypes()
	b.ids.contentType = int64(len(b.contentTypes))
	return b
}

// NewDemo returns a backend preloaded with the sample catalogue.
func NewDemo(opts ...Option) *Backend {
	b := New(opts...)
	b.seed(b.now())
	return b
}

func (b *Backend) ListProjects(_ context.Context, filter project.ListProjectsFilter) ([]project.Project, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]project.Project, 0, len(b.projects))
	for _, p := range b.projects {
		if !p.IsActive || !p.Matches(filter.Keyword) || !p.InCategory(filter.CategoryID) {
			continue
		}
		out = append(out, b.decorate(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if filter.Page > 0 || filter.Limit > 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = view.DefaultLimit
		}
		out, _ = view.Page(out, filter.Page, limit)
	}
	return out, total, nil
}

func (b *Backend) GetProject(_ context.Context, id int64) (*project.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.projectIndex(id)
	if i < 0 || !b.projects[i].IsActive {
		return nil, apperrors.NotFound(msgProjectNotFound)
	}
	p := b.decorate(b.projects[i])
	return &p, nil
}

func (b *Backend) CreateProject(_ context.Context, in project.CreateProjectInput) (*project.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if in.CategoryID != nil && b.categoryIndex(*in.CategoryID) < 0 {
		return nil, apperrors.BadRequest(msgCategoryNotFound)
	}
	now := b.now()
	b.ids.project++
	p := project.Project{
		ID:          b.ids.project,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CategoryID:  copyID(in.CategoryID),
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
	}
	b.projects = append(b.projects, p)
	out := b.decorate(p)
	return &out, nil
}

func (b *Backend) UpdateProject(_ context.Context, id int64, in project.UpdateProjectInput) (*project.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.projectIndex(id)
	if i < 0 {
		return nil, apperrors.NotFound(msgProjectNotFound)
	}
	if in.CategoryID != nil && b.categoryIndex(*in.CategoryID) < 0 {
		return nil, apperrors.BadRequest(msgCategoryNotFound)
	}
	in.Apply(&b.projects[i], b.now())
	out := b.decorate(b.projects[i])
	return &out, nil
}

func (b *Backend) DeleteProject(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.projectIndex(id)
	if i < 0 || !b.projects[i].IsActive {
		return apperrors.NotFound(msgProjectNotFound)
	}
	b.projects[i].IsActive = false
	b.projects[i].UpdatedAt = b.now()
	return nil
}

func (b *Backend) ListCategories(context.Context) ([]project.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	active := make([]project.Category, 0, len(b.categories))
	for _, c := range b.categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	out := view.CategoryProjectCounts(active, b.projects)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (b *Backend) CreateCategory(_ context.Context, in project.CreateCategoryInput) (*project.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ids.category++
	c := project.Category{
		ID:          b.ids.category,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	b.categories = append(b.categories, c)
	return &c, nil
}

func (b *Backend) UpdateCategory(_ context.Context, id int64, in project.UpdateCategoryInput) (*project.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.categoryIndex(id)
	if i < 0 {
		return nil, apperrors.NotFound(msgCategoryNotFound)
	}
	in.Apply(&b.categories[i])
	out := view.CategoryProjectCounts(b.categories[i:i+1], b.projects)[0]
	return &out, nil
}

func (b *Backend) DeleteCategory(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.categoryIndex(id)
	if i < 0 || !b.categories[i].IsActive {
		return apperrors.NotFound(msgCategoryNotFound)
	}
	b.categories[i].IsActive = false
	return nil
}

func (b *Backend) ListDocumentation(_ context.Context, filters docentry.Filters) (docentry.Listing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := docgen.Build(b.source(), docgen.OptionsFromFilters(filters), b.now())
	listing := docentry.Listing{Entries: entries}
	if b.lastGenerated != nil {
		at := *b.lastGenerated
		listing.LastSyncedAt = &at
	}
	return listing, nil
}

// GenerateDocumentation stamps the targeted sub-projects, or every
// documentation enabled one when no ids are given.
func (b *Backend) GenerateDocumentation(_ context.Context, in docentry.GenerateInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	only := make(map[int64]bool, len(in.SubProjectIDs))
	for _, id := range in.SubProjectIDs {
		only[id] = true
	}

	now := b.now()
	stamped := 0
	for i := range b.subProjects {
		s := &b.subProjects[i]
		if !s.IsActive || !s.DocumentationEnabled {
			continue
		}
		if len(only) > 0 && !only[s.ID] {
			continue
		}
		at := now
		s.DocumentationGeneratedAt = &at
		stamped++
	}
	if len(only) > 0 && stamped == 0 {
		return apperrors.BadRequest(msgNothingToGenerate)
	}
	b.lastGenerated = &now
	return nil
}

// SaveUploadedImage records a hosted image. An image already known by MD5,
// or by key when the input carries no MD5, is returned instead of stored
// twice. A known key with a different MD5 replaces that record in place.
func (b *Backend) SaveUploadedImage(_ context.Context, in image.SaveInput) (*image.Uploaded, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keyAt := -1
	for i, img := range b.images {
		if (in.MD5 != "" && img.MD5 == in.MD5) || (in.MD5 == "" && img.Key == in.Key) {
			existing := img
			return &existing, nil
		}
		if img.Key == in.Key {
			keyAt = i
		}
	}

	now := b.now()
	img := image.Hosted{
		Key:        in.Key,
		Name:       in.Name,
		Pathname:   in.Pathname,
		OriginName: in.OriginName,
		Size:       in.Size,
		Width:      in.Width,
		Height:     in.Height,
		Mimetype:   in.Mimetype,
		Extension:  in.Extension,
		MD5:        in.MD5,
		SHA1:       in.SHA1,
		Links:      in.Links,
	}.Unsaved(in.AlbumID, in.Permission)
	img.UpdatedAt = &now

	if keyAt >= 0 {
		img.ID = b.images[keyAt].ID
		img.CreatedAt = b.images[keyAt].CreatedAt
		b.images[keyAt] = img
		return &img, nil
	}

	b.ids.image++
	img.ID = b.ids.image
	img.CreatedAt = &now
	b.images = append(b.images, img)
	return &img, nil
}

func (b *Backend) ListUploadedImages(context.Context) ([]image.Uploaded, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]image.Uploaded(nil), b.images...), nil
}

// decorate fills the derived counters and the embedded category.
func (b *Backend) decorate(p project.Project) project.Project {
	p.SubProjectCount = 0
	p.DocumentationCount = 0
	for _, s := range b.subProjects {
		if s.ProjectID != p.ID || !s.IsActive {
			continue
		}
		p.SubProjectCount++
		if s.DocumentationEnabled {
			p.DocumentationCount++
		}
	}
	p.Category = nil
	if p.CategoryID != nil {
		if i := b.categoryIndex(*p.CategoryID); i >= 0 {
			c := b.categories[i]
			p.Category = &c
		}
	}
	p.CategoryID = copyID(p.CategoryID)
	return p
}

func (b *Backend) source() docgen.Source {
	subs := make([]subproject.SubProject, len(b.subProjects))
	for i, s := range b.subProjects {
		subs[i] = b.hydrate(s)
	}
	return docgen.Source{
		Categories:  append([]project.Category(nil), b.categories...),
		Projects:    append([]project.Project(nil), b.projects...),
		SubProjects: subs,
	}
}

func (b *Backend) projectIndex(id int64) int {
	for i, p := range b.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) categoryIndex(id int64) int {
	for i, c := range b.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
