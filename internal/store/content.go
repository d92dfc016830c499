package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/domain/content"
	"cps-console/internal/expiry"
	"cps-console/internal/view"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

// ContentStore owns the content type catalogue and fronts content and text
// command edits, which it hands to the sub-project store.
type ContentStore struct {
	*hub
	backend ContentBackend
	subs    *SubProjectStore
	log     *zap.Logger
	now     func() time.Time
	calc    expiry.Calculator

	mu    sync.RWMutex
	types []content.Type
}

// NewContentStore creates a new content store. Item edits are applied to
// the sub-projects held by subs.
func NewContentStore(backend ContentBackend, subs *SubProjectStore, opts ...Option) *ContentStore {
	o := buildOptions(opts)
	return &ContentStore{
		hub:     newHub(NameContentTypes),
		backend: backend,
		subs:    subs,
		log:     o.log.Named(NameContentTypes),
		now:     o.now,
		calc:    o.calc,
	}
}

func (s *ContentStore) FetchContentTypes(ctx context.Context) ([]content.Type, error) {
	defer s.begin()()

	items, err := s.backend.ListContentTypes(ctx)
	if err != nil {
		if late(s.log, NameContentTypes, err) {
			return s.ContentTypes(), nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.types = append([]content.Type(nil), items...)
	s.mu.Unlock()

	s.emit(KindFetched, 0)
	return s.ContentTypes(), nil
}

func (s *ContentStore) CreateContentType(ctx context.Context, in content.CreateTypeInput) (*content.Type, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	t, err := s.backend.CreateContentType(ctx, in)
	if err != nil {
		if late(s.log, NameContentTypes, err) {
			return nil, nil
		}
		return nil, err
	}
	if t == nil {
		return nil, apperrors.Business(msgTypeCreateFailed, 0)
	}

	s.mu.Lock()
	s.types = append(s.types, *t)
	s.mu.Unlock()

	s.emit(KindCreated, t.ID)
	out := *t
	return &out, nil
}

func (s *ContentStore) UpdateContentType(ctx context.Context, id int64, in content.UpdateTypeInput) (*content.Type, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	t, err := s.backend.UpdateContentType(ctx, id, in)
	if err != nil {
		if late(s.log, NameContentTypes, err) {
			return s.GetContentType(id), nil
		}
		return nil, err
	}

	s.mu.Lock()
	i := s.index(id)
	var updated content.Type
	switch {
	case t != nil:
		updated = *t
	case i >= 0:
		updated = s.types[i]
		in.Apply(&updated)
	default:
		s.mu.Unlock()
		return nil, apperrors.NotFound(msgTypeNotFound)
	}
	if i >= 0 {
		s.types[i] = updated
	} else {
		s.types = append(s.types, updated)
	}
	s.mu.Unlock()

	s.emit(KindUpdated, id)
	return &updated, nil
}

// DeleteContentType refuses system types before contacting the backend. The
// collection is untouched unless the backend confirms the deletion.
func (s *ContentStore) DeleteContentType(ctx context.Context, id int64) error {
	if t := s.GetContentType(id); t != nil && t.IsSystem {
		return apperrors.SystemTypeProtected()
	}
	if err := s.backend.DeleteContentType(ctx, id); err != nil {
		if late(s.log, NameContentTypes, err) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.types = append(s.types[:i], s.types[i+1:]...)
	}
	s.mu.Unlock()

	s.emit(KindDeleted, id)
	return nil
}

// AddContent checks url-typed values before handing the item over.
func (s *ContentStore) AddContent(ctx context.Context, in content.SaveContentInput) (*content.Content, error) {
	if err := s.checkValue(in); err != nil {
		return nil, err
	}
	return s.subs.AddContent(ctx, in)
}

func (s *ContentStore) UpdateContent(ctx context.Context, id int64, in content.SaveContentInput) (*content.Content, error) {
	if err := s.checkValue(in); err != nil {
		return nil, err
	}
	return s.subs.UpdateContent(ctx, id, in)
}

func (s *ContentStore) RemoveContent(ctx context.Context, id int64) error {
	return s.subs.RemoveContent(ctx, id)
}

func (s *ContentStore) SaveTextCommand(ctx context.Context, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	return s.subs.UpsertTextCommand(ctx, in)
}

func (s *ContentStore) RemoveTextCommand(ctx context.Context, id int64) error {
	return s.subs.RemoveTextCommand(ctx, id)
}

func (s *ContentStore) BulkRemoveTextCommands(ctx context.Context, ids []int64) error {
	return s.subs.BulkRemoveTextCommands(ctx, ids)
}

// ContentSummary counts the sub-project's contents and how many are not
// safe.
func (s *ContentStore) ContentSummary(subProjectID int64) content.Summary {
	sub := s.subs.GetByID(subProjectID)
	if sub == nil {
		return content.Summary{}
	}
	return view.ContentSummary(s.calc, sub.Contents, s.now())
}

// ContentTypes returns a copy of the type catalogue.
func (s *ContentStore) ContentTypes() []content.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]content.Type(nil), s.types...)
}

func (s *ContentStore) GetContentType(id int64) *content.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return nil
	}
	t := s.types[i]
	return &t
}

func (s *ContentStore) checkValue(in content.SaveContentInput) error {
	t := s.GetContentType(in.ContentTypeID)
	if t != nil && t.FieldType == content.FieldURL {
		return validator.URL(in.ContentValue)
	}
	return nil
}

func (s *ContentStore) index(id int64) int {
	for i := range s.types {
		if s.types[i].ID == id {
			return i
		}
	}
	return -1
}
