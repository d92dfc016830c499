package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"cps-console/internal/domain/project"
	"cps-console/internal/view"
	apperrors "cps-console/pkg/errors"
)

const projectColumns = `
	p.id, p.name, p.description, p.category_id, p.is_active, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM sub_projects s WHERE s.project_id = p.id AND s.is_active),
	(SELECT COUNT(*) FROM sub_projects s WHERE s.project_id = p.id AND s.is_active AND s.documentation_enabled),
	c.id, c.name, c.description, c.sort_order, c.is_active
	FROM projects p
	LEFT JOIN project_categories c ON c.id = p.category_id`

const categoryColumns = `
	c.id, c.name, c.description, c.sort_order, c.is_active,
	(SELECT COUNT(*) FROM projects p WHERE p.category_id = c.id AND p.is_active)`

// projectFilter renders the WHERE clause shared by the list and count
// queries.
func projectFilter(filter project.ListProjectsFilter) (string, []any) {
	clauses := []string{"p.is_active"}
	var args []any

	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		args = append(args, "%"+escapeLikePattern(keyword)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", n, n))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// projectPage resolves the LIMIT and OFFSET for a filter. ok is false when
// the caller asked for the whole list.
func projectPage(filter project.ListProjectsFilter, total int) (limit, offset int, ok bool) {
	if filter.Page <= 0 && filter.Limit <= 0 {
		return 0, 0, false
	}
	limit = filter.Limit
	if limit == 0 {
		limit = view.DefaultLimit
	}
	p := view.NewPagination()
	p.SetLimit(limit)
	p.Total = total
	p.SetPage(filter.Page)
	return p.Limit, p.Offset(), true
}

func (b *Backend) ListProjects(ctx context.Context, filter project.ListProjectsFilter) ([]project.Project, int, error) {
	where, args := projectFilter(filter)

	var total int
	if err := b.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM projects p "+where, args...).Scan(&total); err != nil {
		return nil, 0, wrap(err, errFailedCountProjects)
	}

	query := "SELECT " + projectColumns + " " + where + " ORDER BY p.created_at DESC, p.id DESC"
	if limit, offset, ok := projectPage(filter, total); ok {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := b.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap(err, errFailedListProjects)
	}
	defer rows.Close()

	projects := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, errFailedScanProject(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap(err, errFailedListProjects)
	}
	return projects, total, nil
}

func (b *Backend) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	p, err := b.getProject(ctx, b.db.Pool, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperrors.NotFound(msgProjectNotFound)
	}
	return p, nil
}

func (b *Backend) getProject(ctx context.Context, q querier, id int64) (*project.Project, error) {
	p, err := scanProject(q.QueryRow(ctx, "SELECT "+projectColumns+" WHERE p.id = $1", id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(msgProjectNotFound)
		}
		return nil, wrap(err, errFailedGetProject)
	}
	return &p, nil
}

func (b *Backend) CreateProject(ctx context.Context, in project.CreateProjectInput) (*project.Project, error) {
	query := `
		INSERT INTO projects (name, description, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`

	var id int64
	err := b.db.Pool.QueryRow(ctx, query, strings.TrimSpace(in.Name), in.Description, in.CategoryID, b.now()).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperrors.BadRequest(msgCategoryNotFound)
		}
		return nil, wrap(err, errFailedCreateProject)
	}
	return b.getProject(ctx, b.db.Pool, id)
}

func (b *Backend) UpdateProject(ctx context.Context, id int64, in project.UpdateProjectInput) (*project.Project, error) {
	query := `
		UPDATE projects SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			category_id = COALESCE($4, category_id),
			is_active = COALESCE($5, is_active),
			updated_at = $6
		WHERE id = $1
	`

	result, err := b.db.Pool.Exec(ctx, query, id, in.Name, in.Description, in.CategoryID, in.IsActive, b.now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperrors.BadRequest(msgCategoryNotFound)
		}
		return nil, wrap(err, errFailedUpdateProject)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.NotFound(msgProjectNotFound)
	}
	return b.getProject(ctx, b.db.Pool, id)
}

// DeleteProject deactivates the project. Its sub-projects stay in place and
// drop out of every listing with it.
func (b *Backend) DeleteProject(ctx context.Context, id int64) error {
	query := "UPDATE projects SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active"
	result, err := b.db.Pool.Exec(ctx, query, id, b.now())
	if err != nil {
		return wrap(err, errFailedDeleteProject)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound(msgProjectNotFound)
	}
	return nil
}

func (b *Backend) ListCategories(ctx context.Context) ([]project.Category, error) {
	query := "SELECT " + categoryColumns + " FROM project_categories c WHERE c.is_active ORDER BY c.sort_order, c.id"
	return b.queryCategories(ctx, b.db.Pool, query)
}

func (b *Backend) queryCategories(ctx context.Context, q querier, query string, args ...any) ([]project.Category, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, errFailedListCategories)
	}
	defer rows.Close()

	categories := make([]project.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errFailedScanCategory(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, errFailedListCategories)
	}
	return categories, nil
}

func (b *Backend) CreateCategory(ctx context.Context, in project.CreateCategoryInput) (*project.Category, error) {
	query := `
		INSERT INTO project_categories (name, description, sort_order, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	active := in.IsActive == nil || *in.IsActive
	err := b.db.Pool.QueryRow(ctx, query, strings.TrimSpace(in.Name), in.Description, in.SortOrder, active, b.now()).Scan(&id)
	if err != nil {
		return nil, wrap(err, errFailedCreateCategory)
	}
	return b.getCategory(ctx, id)
}

func (b *Backend) UpdateCategory(ctx context.Context, id int64, in project.UpdateCategoryInput) (*project.Category, error) {
	query := `
		UPDATE project_categories SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			sort_order = COALESCE($4, sort_order),
			is_active = COALESCE($5, is_active)
		WHERE id = $1
	`

	result, err := b.db.Pool.Exec(ctx, query, id, in.Name, in.Description, in.SortOrder, in.IsActive)
	if err != nil {
		return nil, wrap(err, errFailedUpdateCategory)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.NotFound(msgCategoryNotFound)
	}
	return b.getCategory(ctx, id)
}

func (b *Backend) getCategory(ctx context.Context, id int64) (*project.Category, error) {
	query := "SELECT " + categoryColumns + " FROM project_categories c WHERE c.id = $1"
	c, err := scanCategory(b.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(msgCategoryNotFound)
		}
		return nil, wrap(err, errFailedListCategories)
	}
	return &c, nil
}

// DeleteCategory is a soft delete. Projects keep their category reference.
func (b *Backend) DeleteCategory(ctx context.Context, id int64) error {
	result, err := b.db.Pool.Exec(ctx, "UPDATE project_categories SET is_active = FALSE WHERE id = $1 AND is_active", id)
	if err != nil {
		return wrap(err, errFailedDeleteCategory)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound(msgCategoryNotFound)
	}
	return nil
}

func scanProject(row pgx.Row) (project.Project, error) {
	var (
		p           project.Project
		catID       *int64
		catName     *string
		catDesc     *string
		catSort     *int
		catIsActive *bool
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&p.SubProjectCount, &p.DocumentationCount,
		&catID, &catName, &catDesc, &catSort, &catIsActive,
	)
	if err != nil {
		return project.Project{}, err
	}
	if catID != nil {
		p.Category = &project.Category{ID: *catID}
		if catName != nil {
			p.Category.Name = *catName
		}
		if catDesc != nil {
			p.Category.Description = *catDesc
		}
		if catSort != nil {
			p.Category.SortOrder = *catSort
		}
		if catIsActive != nil {
			p.Category.IsActive = *catIsActive
		}
	}
	return p, nil
}

func scanCategory(row pgx.Row) (project.Category, error) {
	var c project.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.ProjectCount)
	return c, err
}
