package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/domain/project"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

// ProjectStore holds the project collection and the project being viewed.
type ProjectStore struct {
	*hub
	backend ProjectBackend
	log     *zap.Logger
	now     func() time.Time

	mu             sync.RWMutex
	projects       []project.Project
	current        *project.Project
	searchQuery    string
	categoryFilter *int64
}

// NewProjectStore creates a new project store over backend.
func NewProjectStore(backend ProjectBackend, opts ...Option) *ProjectStore {
	o := buildOptions(opts)
	return &ProjectStore{
		hub:     newHub(NameProjects),
		backend: backend,
		log:     o.log.Named(NameProjects),
		now:     o.now,
	}
}

// Fetch replaces the collection with the backend's list and returns the
// total reported for the query.
func (s *ProjectStore) Fetch(ctx context.Context, filter project.ListProjectsFilter) ([]project.Project, int, error) {
	defer s.begin()()

	items, total, err := s.backend.ListProjects(ctx, filter)
	if err != nil {
		if late(s.log, NameProjects, err) {
			cur := s.Projects()
			return cur, len(cur), nil
		}
		return nil, 0, err
	}

	s.mu.Lock()
	s.projects = append([]project.Project(nil), items...)
	s.mu.Unlock()

	s.log.Debug("projects fetched", zap.Int("count", len(items)), zap.Int("total", total))
	s.emit(KindFetched, 0)
	return s.Projects(), total, nil
}

// FetchByID loads one project, merges it into the collection and makes it
// the current project. An inactive project is reported as not found.
func (s *ProjectStore) FetchByID(ctx context.Context, id int64) (*project.Project, error) {
	defer s.begin()()

	p, err := s.backend.GetProject(ctx, id)
	if err != nil {
		if late(s.log, NameProjects, err) {
			return s.Current(), nil
		}
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NotFound(msgProjectNotFound)
	}
	if !p.IsActive {
		// Soft-deleted on the server: keep the tombstone, never select it.
		s.mu.Lock()
		s.upsert(*p)
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
		s.mu.Unlock()
		return nil, apperrors.NotFound(msgProjectNotFound)
	}

	s.mu.Lock()
	s.upsert(*p)
	cur := *p
	s.current = &cur
	s.mu.Unlock()

	s.emit(KindUpdated, id)
	out := *p
	return &out, nil
}

// Create sends the new project and prepends the server's record.
func (s *ProjectStore) Create(ctx context.Context, in project.CreateProjectInput) (*project.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if err := validator.Name("name", in.Name); err != nil {
		return nil, err
	}

	p, err := s.backend.CreateProject(ctx, in)
	if err != nil {
		if late(s.log, NameProjects, err) {
			return nil, nil
		}
		return nil, err
	}
	if p == nil {
		return nil, apperrors.Business(msgProjectCreateFailed, 0)
	}

	s.mu.Lock()
	s.projects = append([]project.Project{*p}, s.projects...)
	s.mu.Unlock()

	s.log.Info("project created", zap.Int64("id", p.ID))
	s.emit(KindCreated, p.ID)
	out := *p
	return &out, nil
}

// Update replaces the local project with the server's response. When the
// backend accepts the change without echoing the record, the local copy is
// patched instead.
func (s *ProjectStore) Update(ctx context.Context, id int64, in project.UpdateProjectInput) (*project.Project, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	p, err := s.backend.UpdateProject(ctx, id, in)
	if err != nil {
		if late(s.log, NameProjects, err) {
			return s.GetByID(id), nil
		}
		return nil, err
	}

	s.mu.Lock()
	var updated project.Project
	switch {
	case p != nil:
		updated = *p
	default:
		i := s.index(id)
		if i < 0 {
			s.mu.Unlock()
			return nil, apperrors.NotFound(msgProjectNotFound)
		}
		updated = s.projects[i]
		in.Apply(&updated, s.now())
	}
	s.upsert(updated)
	if s.current != nil && s.current.ID == id {
		cur := updated
		s.current = &cur
	}
	s.mu.Unlock()

	s.emit(KindUpdated, id)
	return &updated, nil
}

// Delete soft-deletes the project locally once the backend confirms.
func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteProject(ctx, id); err != nil {
		if late(s.log, NameProjects, err) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.projects[i].IsActive = false
		s.projects[i].UpdatedAt = s.now()
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	s.log.Info("project deleted", zap.Int64("id", id))
	s.emit(KindDeleted, id)
	return nil
}

// Refresh re-reads a project after one of its children changed so the
// derived counters stay in sync.
func (s *ProjectStore) Refresh(ctx context.Context, id int64) {
	if _, err := s.FetchByID(ctx, id); err != nil {
		s.log.Warn("refresh parent project failed", zap.Int64("id", id), zap.Error(err))
	}
}

// SetSearchQuery sets the keyword FilteredProjects matches against.
func (s *ProjectStore) SetSearchQuery(q string) {
	s.mu.Lock()
	s.searchQuery = q
	s.mu.Unlock()
	s.emit(KindFilter, 0)
}

// SetCategoryFilter restricts FilteredProjects to one category; nil clears it.
func (s *ProjectStore) SetCategoryFilter(id *int64) {
	s.mu.Lock()
	s.categoryFilter = copyID(id)
	s.mu.Unlock()
	s.emit(KindFilter, 0)
}

// FilteredProjects returns active projects matching the search query and
// the category filter.
func (s *ProjectStore) FilteredProjects() []project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.IsActive && p.Matches(s.searchQuery) && p.InCategory(s.categoryFilter) {
			out = append(out, p)
		}
	}
	return out
}

// Projects returns a copy of the collection, inactive records included.
func (s *ProjectStore) Projects() []project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]project.Project(nil), s.projects...)
}

// GetByID returns the active project with id, or nil.
func (s *ProjectStore) GetByID(id int64) *project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 || !s.projects[i].IsActive {
		return nil
	}
	p := s.projects[i]
	return &p
}

// Current returns the project last loaded by FetchByID, or nil.
func (s *ProjectStore) Current() *project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// Summary counts the active projects.
func (s *ProjectStore) Summary() project.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum project.Summary
	for _, p := range s.projects {
		if !p.IsActive {
			continue
		}
		sum.Total++
		if p.UpdatedAt.After(sum.UpdatedAt) {
			sum.UpdatedAt = p.UpdatedAt
		}
	}
	return sum
}

func (s *ProjectStore) index(id int64) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ProjectStore) upsert(p project.Project) {
	if i := s.index(p.ID); i >= 0 {
		s.projects[i] = p
		return
	}
	s.projects = append(s.projects, p)
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
