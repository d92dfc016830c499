package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"cps-console/internal/domain/project"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

// CategoryStore holds the project categories.
type CategoryStore struct {
	*hub
	backend CategoryBackend
	log     *zap.Logger

	mu         sync.RWMutex
	categories []project.Category
}

// NewCategoryStore creates a new category store over backend.
func NewCategoryStore(backend CategoryBackend, opts ...Option) *CategoryStore {
	o := buildOptions(opts)
	return &CategoryStore{
		hub:     newHub(NameCategories),
		backend: backend,
		log:     o.log.Named(NameCategories),
	}
}

func (s *CategoryStore) Fetch(ctx context.Context) ([]project.Category, error) {
	defer s.begin()()

	items, err := s.backend.ListCategories(ctx)
	if err != nil {
		if late(s.log, NameCategories, err) {
			return s.Categories(), nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.categories = append([]project.Category(nil), items...)
	s.mu.Unlock()

	s.emit(KindFetched, 0)
	return s.Categories(), nil
}

func (s *CategoryStore) Create(ctx context.Context, in project.CreateCategoryInput) (*project.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if err := validator.Name("name", in.Name); err != nil {
		return nil, err
	}

	c, err := s.backend.CreateCategory(ctx, in)
	if err != nil {
		if late(s.log, NameCategories, err) {
			return nil, nil
		}
		return nil, err
	}
	if c == nil {
		return nil, apperrors.Business(msgCategoryCreateFailed, 0)
	}

	s.mu.Lock()
	s.categories = append(s.categories, *c)
	s.mu.Unlock()

	s.emit(KindCreated, c.ID)
	out := *c
	return &out, nil
}

func (s *CategoryStore) Update(ctx context.Context, id int64, in project.UpdateCategoryInput) (*project.Category, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	c, err := s.backend.UpdateCategory(ctx, id, in)
	if err != nil {
		if late(s.log, NameCategories, err) {
			return s.GetByID(id), nil
		}
		return nil, err
	}

	s.mu.Lock()
	i := s.index(id)
	var updated project.Category
	switch {
	case c != nil:
		updated = *c
	case i >= 0:
		updated = s.categories[i]
		in.Apply(&updated)
	default:
		s.mu.Unlock()
		return nil, apperrors.NotFound(msgCategoryNotFound)
	}
	if i >= 0 {
		s.categories[i] = updated
	} else {
		s.categories = append(s.categories, updated)
	}
	s.mu.Unlock()

	s.emit(KindUpdated, id)
	return &updated, nil
}

// Delete flips IsActive; the category stays in the collection.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		if late(s.log, NameCategories, err) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.categories[i].IsActive = false
	}
	s.mu.Unlock()

	s.emit(KindDeleted, id)
	return nil
}

// Active returns active categories in ascending sort order.
func (s *CategoryStore) Active() []project.Category {
	s.mu.RLock()
	out := make([]project.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (s *CategoryStore) Categories() []project.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]project.Category(nil), s.categories...)
}

// GetByID returns the category with id, or nil.
func (s *CategoryStore) GetByID(id int64) *project.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return nil
	}
	c := s.categories[i]
	return &c
}

func (s *CategoryStore) index(id int64) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}
