package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cps-console/internal/domain/project"
	"cps-console/internal/expiry"
)

const errBootstrapFmt = "bootstrap %s: %w"

// Stores is the full set wired against one backend.
type Stores struct {
	Projects      *ProjectStore
	Categories    *CategoryStore
	SubProjects   *SubProjectStore
	Contents      *ContentStore
	Documentation *DocumentationStore

	log  *zap.Logger
	calc expiry.Calculator
}

// New wires every store over one backend with shared options.
func New(backend Backend, opts ...Option) *Stores {
	o := buildOptions(opts)
	projects := NewProjectStore(backend, opts...)
	subs := NewSubProjectStore(backend, backend, projects, opts...)
	return &Stores{
		Projects:      projects,
		Categories:    NewCategoryStore(backend, opts...),
		SubProjects:   subs,
		Contents:      NewContentStore(backend, subs, opts...),
		Documentation: NewDocumentationStore(backend, opts...),
		log:           o.log,
		calc:          o.calc,
	}
}

// Calculator returns the thresholds the stores derive expiry statuses with.
func (s *Stores) Calculator() expiry.Calculator {
	return s.calc
}

// Bootstrap loads the collections every screen needs in parallel: projects,
// categories and content types. The first failure cancels the others.
func (s *Stores) Bootstrap(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, _, err := s.Projects.Fetch(ctx, project.ListProjectsFilter{}); err != nil {
			return fmt.Errorf(errBootstrapFmt, NameProjects, err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.Categories.Fetch(ctx); err != nil {
			return fmt.Errorf(errBootstrapFmt, NameCategories, err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.Contents.FetchContentTypes(ctx); err != nil {
			return fmt.Errorf(errBootstrapFmt, NameContentTypes, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Debug("stores bootstrapped",
		zap.Int("projects", len(s.Projects.Projects())),
		zap.Int("categories", len(s.Categories.Categories())),
		zap.Int("content_types", len(s.Contents.ContentTypes())))
	return nil
}
