package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/domain/docentry"
	"cps-console/internal/view"
	apperrors "cps-console/pkg/errors"
)

// DocumentationStore holds the generated documentation and its filters.
type DocumentationStore struct {
	*hub
	backend DocumentationBackend
	log     *zap.Logger

	mu           sync.RWMutex
	entries      []docentry.Entry
	filters      docentry.Filters
	lastSyncedAt *time.Time
	lastError    string
}

// NewDocumentationStore creates a new documentation store over backend.
func NewDocumentationStore(backend DocumentationBackend, opts ...Option) *DocumentationStore {
	o := buildOptions(opts)
	return &DocumentationStore{
		hub:     newHub(NameDocumentation),
		backend: backend,
		log:     o.log.Named(NameDocumentation),
	}
}

// Fetch loads the entries matching filters and remembers the filters for
// later regenerations. A failure keeps the previous entries and records the
// error text.
func (s *DocumentationStore) Fetch(ctx context.Context, filters docentry.Filters) ([]docentry.Entry, error) {
	defer s.begin()()
	filters = filters.Normalized()

	s.mu.Lock()
	s.filters = filters
	s.mu.Unlock()

	listing, err := s.backend.ListDocumentation(ctx, filters)
	if err != nil {
		if late(s.log, NameDocumentation, err) {
			return s.Entries(), nil
		}
		msg := apperrors.Message(err)
		if msg == "" {
			msg = msgDocsFetchFailed
		}
		s.mu.Lock()
		s.lastError = msg
		s.mu.Unlock()
		s.log.Warn("documentation fetch failed", zap.Error(err))
		return nil, err
	}

	entries := append([]docentry.Entry(nil), listing.Entries...)
	docentry.SortNewestFirst(entries)

	s.mu.Lock()
	s.entries = entries
	s.lastSyncedAt = listing.LastSyncedAt
	s.lastError = ""
	s.mu.Unlock()

	s.emit(KindFetched, 0)
	return s.Entries(), nil
}

// Regenerate asks the backend to rebuild the documentation of the given
// sub-projects, or of every eligible one when ids is empty, then re-fetches
// with the remembered filters.
func (s *DocumentationStore) Regenerate(ctx context.Context, ids []int64) ([]docentry.Entry, error) {
	err := s.backend.GenerateDocumentation(ctx, docentry.GenerateInput{SubProjectIDs: ids})
	if err != nil {
		if late(s.log, NameDocumentation, err) {
			return s.Entries(), nil
		}
		return nil, err
	}
	s.log.Info("documentation regenerated", zap.Int("sub_projects", len(ids)))
	return s.Fetch(ctx, s.Filters())
}

func (s *DocumentationStore) Entries() []docentry.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]docentry.Entry(nil), s.entries...)
}

func (s *DocumentationStore) Grouped() []view.CategoryGroup {
	return view.GroupDocumentation(s.Entries())
}

func (s *DocumentationStore) Filters() docentry.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.filters
	f.CategoryID = copyID(f.CategoryID)
	f.ProjectID = copyID(f.ProjectID)
	return f
}

func (s *DocumentationStore) LastSyncedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSyncedAt == nil {
		return nil
	}
	at := *s.lastSyncedAt
	return &at
}

// Err is the message of the last failed fetch, empty after a success.
func (s *DocumentationStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
