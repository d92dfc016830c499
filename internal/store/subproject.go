package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

// SubProjectStore holds sub-projects with their contents and text commands.
type SubProjectStore struct {
	*hub
	backend  SubProjectBackend
	contents ContentBackend
	projects *ProjectStore
	log      *zap.Logger
	now      func() time.Time
	calc     expiry.Calculator

	mu   sync.RWMutex
	subs []subproject.SubProject
}

// NewSubProjectStore wires the sub-project collection. projects may be nil,
// in which case parent counters are not refreshed after mutations.
func NewSubProjectStore(backend SubProjectBackend, contents ContentBackend, projects *ProjectStore, opts ...Option) *SubProjectStore {
	o := buildOptions(opts)
	return &SubProjectStore{
		hub:      newHub(NameSubProjects),
		backend:  backend,
		contents: contents,
		projects: projects,
		log:      o.log.Named(NameSubProjects),
		now:      o.now,
		calc:     o.calc,
	}
}

// FetchByProject replaces the sub-projects of one project.
func (s *SubProjectStore) FetchByProject(ctx context.Context, projectID int64) ([]subproject.SubProject, error) {
	defer s.begin()()

	items, err := s.backend.ListSubProjects(ctx, projectID)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return s.ByProject(projectID), nil
		}
		return nil, err
	}

	now := s.now()
	s.mu.Lock()
	kept := make([]subproject.SubProject, 0, len(s.subs)+len(items))
	for _, sub := range s.subs {
		if sub.ProjectID != projectID {
			kept = append(kept, sub)
		}
	}
	for _, sub := range items {
		sub = sub.Clone()
		sub.ProjectID = projectID
		sub.Refresh(s.calc, now)
		kept = append(kept, sub)
	}
	s.subs = kept
	s.mu.Unlock()

	s.emit(KindFetched, projectID)
	return s.ByProject(projectID), nil
}

func (s *SubProjectStore) FetchByID(ctx context.Context, id int64) (*subproject.SubProject, error) {
	sub, err := s.backend.GetSubProject(ctx, id)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return s.GetByID(id), nil
		}
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.NotFound(msgSubProjectNotFound)
	}

	s.mu.Lock()
	s.upsert(*sub)
	s.mu.Unlock()

	s.emit(KindUpdated, id)
	return s.GetByID(id), nil
}

func (s *SubProjectStore) Create(ctx context.Context, in subproject.CreateSubProjectInput) (*subproject.SubProject, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if err := validator.Name("name", in.Name); err != nil {
		return nil, err
	}

	sub, err := s.backend.CreateSubProject(ctx, in)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil, nil
		}
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.Business(msgSubProjectCreateFailed, 0)
	}

	s.mu.Lock()
	s.upsert(*sub)
	s.mu.Unlock()

	s.log.Info("sub-project created", zap.Int64("id", sub.ID), zap.Int64("project_id", sub.ProjectID))
	s.emit(KindCreated, sub.ID)
	s.refreshParent(ctx, sub.ProjectID)
	return s.GetByID(sub.ID), nil
}

func (s *SubProjectStore) Update(ctx context.Context, id int64, in subproject.UpdateSubProjectInput) (*subproject.SubProject, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	sub, err := s.backend.UpdateSubProject(ctx, id, in)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return s.GetByID(id), nil
		}
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.Business(msgSubProjectUpdateFailed, 0)
	}

	s.mu.Lock()
	s.upsert(*sub)
	s.mu.Unlock()

	s.emit(KindUpdated, id)
	s.refreshParent(ctx, sub.ProjectID)
	return s.GetByID(id), nil
}

// Delete soft-deletes locally once the backend confirms.
func (s *SubProjectStore) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteSubProject(ctx, id); err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil
		}
		return err
	}

	var projectID int64
	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.subs[i].IsActive = false
		s.subs[i].UpdatedAt = s.now()
		projectID = s.subs[i].ProjectID
	}
	s.mu.Unlock()

	s.emit(KindDeleted, id)
	if projectID != 0 {
		s.refreshParent(ctx, projectID)
	}
	return nil
}

// Reorder assigns contiguous 1-based sort orders following ids. The
// backend's ordered list wins when it returns one; otherwise the orders are
// reassigned locally.
func (s *SubProjectStore) Reorder(ctx context.Context, projectID int64, ids []int64) ([]subproject.SubProject, error) {
	items := subproject.OrderFromIDs(ids)
	if err := validator.Struct(subproject.ReorderInput{Items: items}); err != nil {
		return nil, err
	}

	returned, err := s.backend.ReorderSubProjects(ctx, items)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return s.ByProject(projectID), nil
		}
		return nil, err
	}

	now := s.now()
	s.mu.Lock()
	if len(returned) > 0 {
		for _, sub := range returned {
			s.upsert(sub)
		}
	} else {
		for _, item := range items {
			if i := s.index(item.ID); i >= 0 {
				s.subs[i].SortOrder = item.SortOrder
				s.subs[i].UpdatedAt = now
			}
		}
	}
	s.mu.Unlock()

	s.emit(KindReordered, projectID)
	return s.ByProject(projectID), nil
}

// AddContent creates a content item and attaches it to its sub-project.
func (s *SubProjectStore) AddContent(ctx context.Context, in content.SaveContentInput) (*content.Content, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	c, err := s.contents.CreateContent(ctx, in)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil, nil
		}
		return nil, err
	}
	if c == nil {
		return nil, apperrors.Business(msgContentCreateFailed, 0)
	}
	return s.mergeContent(in.SubProjectID, *c), nil
}

func (s *SubProjectStore) UpdateContent(ctx context.Context, id int64, in content.SaveContentInput) (*content.Content, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	c, err := s.contents.UpdateContent(ctx, id, in)
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil, nil
		}
		return nil, err
	}
	if c == nil {
		return nil, apperrors.Business(msgContentUpdateFailed, 0)
	}
	return s.mergeContent(in.SubProjectID, *c), nil
}

func (s *SubProjectStore) RemoveContent(ctx context.Context, id int64) error {
	if err := s.contents.DeleteContent(ctx, id); err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil
		}
		return err
	}

	now := s.now()
	var owner int64
	s.mu.Lock()
	for i := range s.subs {
		if s.subs[i].RemoveContent(id, now) {
			owner = s.subs[i].ID
			break
		}
	}
	s.mu.Unlock()

	s.emit(KindUpdated, owner)
	return nil
}

// UpsertTextCommand creates the command when in.ID is zero and updates it
// otherwise.
func (s *SubProjectStore) UpsertTextCommand(ctx context.Context, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	in.CommandText = strings.TrimSpace(in.CommandText)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	var (
		cmd *content.TextCommand
		err error
	)
	if in.ID > 0 {
		cmd, err = s.contents.UpdateTextCommand(ctx, in.ID, in)
	} else {
		cmd, err = s.contents.CreateTextCommand(ctx, in)
	}
	if err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil, nil
		}
		return nil, err
	}
	if cmd == nil {
		return nil, apperrors.Business(msgCommandSaveFailed, 0)
	}

	saved := *cmd
	if saved.SubProjectID == 0 {
		saved.SubProjectID = in.SubProjectID
	}
	saved.Refresh(s.calc, s.now())

	s.mu.Lock()
	if i := s.index(saved.SubProjectID); i >= 0 {
		s.subs[i].UpsertTextCommand(saved)
	}
	s.mu.Unlock()

	s.emit(KindUpdated, saved.SubProjectID)
	return &saved, nil
}

func (s *SubProjectStore) RemoveTextCommand(ctx context.Context, id int64) error {
	if err := s.contents.DeleteTextCommand(ctx, id); err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil
		}
		return err
	}
	s.dropCommands([]int64{id})
	return nil
}

// BulkRemoveTextCommands deletes several commands in one round trip.
func (s *SubProjectStore) BulkRemoveTextCommands(ctx context.Context, ids []int64) error {
	in := content.BulkDeleteTextCommandsInput{IDs: ids}
	if err := validator.Struct(in); err != nil {
		return err
	}
	if err := s.contents.BulkDeleteTextCommands(ctx, in); err != nil {
		if late(s.log, NameSubProjects, err) {
			return nil
		}
		return err
	}
	s.dropCommands(ids)
	s.log.Info("text commands removed", zap.Int("count", len(ids)))
	return nil
}

// ByProject returns the project's active sub-projects by ascending sort
// order.
func (s *SubProjectStore) ByProject(projectID int64) []subproject.SubProject {
	s.mu.RLock()
	out := make([]subproject.SubProject, 0)
	for _, sub := range s.subs {
		if sub.ProjectID == projectID && sub.IsActive {
			out = append(out, sub.Clone())
		}
	}
	s.mu.RUnlock()

	subproject.SortByOrder(out)
	return out
}

// GetByID returns the active sub-project with id, or nil.
func (s *SubProjectStore) GetByID(id int64) *subproject.SubProject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 || !s.subs[i].IsActive {
		return nil
	}
	sub := s.subs[i].Clone()
	return &sub
}

// All returns a copy of every loaded sub-project.
func (s *SubProjectStore) All() []subproject.SubProject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]subproject.SubProject, len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.Clone()
	}
	return out
}

func (s *SubProjectStore) Stats() subproject.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return subproject.ComputeStats(s.subs)
}

func (s *SubProjectStore) mergeContent(subProjectID int64, c content.Content) *content.Content {
	if c.SubProjectID == 0 {
		c.SubProjectID = subProjectID
	}
	c.Refresh(s.calc, s.now())

	s.mu.Lock()
	if i := s.index(c.SubProjectID); i >= 0 {
		s.subs[i].UpsertContent(c)
	}
	s.mu.Unlock()

	s.emit(KindUpdated, c.SubProjectID)
	return &c
}

func (s *SubProjectStore) dropCommands(ids []int64) {
	now := s.now()
	touched := map[int64]bool{}
	s.mu.Lock()
	for _, id := range ids {
		for i := range s.subs {
			if s.subs[i].RemoveTextCommand(id, now) {
				touched[s.subs[i].ID] = true
				break
			}
		}
	}
	s.mu.Unlock()

	for id := range touched {
		s.emit(KindUpdated, id)
	}
}

func (s *SubProjectStore) refreshParent(ctx context.Context, projectID int64) {
	if s.projects == nil {
		return
	}
	s.projects.Refresh(ctx, projectID)
}

func (s *SubProjectStore) index(id int64) int {
	for i := range s.subs {
		if s.subs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *SubProjectStore) upsert(sub subproject.SubProject) {
	sub = sub.Clone()
	sub.Refresh(s.calc, s.now())
	if i := s.index(sub.ID); i >= 0 {
		s.subs[i] = sub
		return
	}
	s.subs = append(s.subs, sub)
}
