package postgres

import (
	"context"
	"time"

	"cps-console/internal/docgen"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/project"
	apperrors "cps-console/pkg/errors"
)

// ListDocumentation projects the documentation enabled sub-projects through
// the same builder the in-memory backend uses.
func (b *Backend) ListDocumentation(ctx context.Context, filters docentry.Filters) (docentry.Listing, error) {
	src, err := b.documentationSource(ctx)
	if err != nil {
		return docentry.Listing{}, err
	}

	listing := docentry.Listing{
		Entries: docgen.Build(src, docgen.OptionsFromFilters(filters), b.now()),
	}

	var last *time.Time
	query := "SELECT MAX(documentation_generated_at) FROM sub_projects WHERE is_active"
	if err := b.db.Pool.QueryRow(ctx, query).Scan(&last); err != nil {
		return docentry.Listing{}, wrap(err, errFailedLastGenerated)
	}
	listing.LastSyncedAt = last
	return listing, nil
}

// GenerateDocumentation stamps the targeted sub-projects, or every
// documentation enabled one when no ids are given.
func (b *Backend) GenerateDocumentation(ctx context.Context, in docentry.GenerateInput) error {
	query := `
		UPDATE sub_projects SET documentation_generated_at = $1
		WHERE is_active AND documentation_enabled
	`
	args := []any{b.now()}
	if len(in.SubProjectIDs) > 0 {
		query += " AND id = ANY($2)"
		args = append(args, in.SubProjectIDs)
	}

	result, err := b.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return wrap(err, errFailedGenerateDocumentation)
	}
	if len(in.SubProjectIDs) > 0 && result.RowsAffected() == 0 {
		return apperrors.BadRequest(msgNothingToGenerate)
	}
	return nil
}

func (b *Backend) documentationSource(ctx context.Context) (docgen.Source, error) {
	categories, err := b.queryCategories(ctx, b.db.Pool, "SELECT "+categoryColumns+" FROM project_categories c")
	if err != nil {
		return docgen.Source{}, err
	}

	rows, err := b.db.Pool.Query(ctx, "SELECT "+projectColumns+" WHERE p.is_active")
	if err != nil {
		return docgen.Source{}, wrap(err, errFailedListProjects)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return docgen.Source{}, errFailedScanProject(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return docgen.Source{}, wrap(err, errFailedListProjects)
	}
	rows.Close()

	subs, err := b.querySubProjects(ctx, b.db.Pool,
		"SELECT "+subProjectColumns+" WHERE is_active AND documentation_enabled ORDER BY id")
	if err != nil {
		return docgen.Source{}, err
	}

	return docgen.Source{Categories: categories, Projects: projects, SubProjects: subs}, nil
}
