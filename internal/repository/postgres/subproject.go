package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/subproject"
	apperrors "cps-console/pkg/errors"
)

const subProjectColumns = `
	id, project_id, name, description, sort_order, documentation_enabled,
	documentation_generated_at, is_active, created_at, updated_at
	FROM sub_projects`

const contentColumns = `
	ct.id, ct.sub_project_id, ct.content_value, ct.expiry_days,
	COALESCE(to_char(ct.expiry_date, 'YYYY-MM-DD'), ''),
	ct.uploaded_image_id, ct.show_in_documentation, ct.created_at, ct.updated_at,
	t.id, t.name, t.field_type, t.has_expiry, t.is_system, t.description
	FROM contents ct
	JOIN content_types t ON t.id = ct.content_type_id`

const commandFields = `id, sub_project_id, command_text, expiry_days,
	to_char(expiry_date, 'YYYY-MM-DD'), created_at, updated_at`

const commandColumns = commandFields + " FROM text_commands"

func (b *Backend) ListSubProjects(ctx context.Context, projectID int64) ([]subproject.SubProject, error) {
	query := "SELECT " + subProjectColumns + " WHERE project_id = $1 AND is_active ORDER BY sort_order, id"
	return b.querySubProjects(ctx, b.db.Pool, query, projectID)
}

func (b *Backend) GetSubProject(ctx context.Context, id int64) (*subproject.SubProject, error) {
	s, err := b.getSubProject(ctx, b.db.Pool, id)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, apperrors.NotFound(msgSubProjectNotFound)
	}
	return s, nil
}

func (b *Backend) getSubProject(ctx context.Context, q querier, id int64) (*subproject.SubProject, error) {
	subs, err := b.querySubProjects(ctx, q, "SELECT "+subProjectColumns+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, apperrors.NotFound(msgSubProjectNotFound)
	}
	return &subs[0], nil
}

func (b *Backend) CreateSubProject(ctx context.Context, in subproject.CreateSubProjectInput) (*subproject.SubProject, error) {
	var created *subproject.SubProject
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx, "SELECT is_active FROM projects WHERE id = $1 FOR UPDATE", in.ProjectID).Scan(&active)
		if isNoRows(err) || (err == nil && !active) {
			return apperrors.BadRequest(msgProjectNotFound)
		}
		if err != nil {
			return wrap(err, errFailedCreateSubProject)
		}

		sortOrder := in.SortOrder
		if sortOrder <= 0 {
			next := `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM sub_projects WHERE project_id = $1 AND is_active`
			if err := tx.QueryRow(ctx, next, in.ProjectID).Scan(&sortOrder); err != nil {
				return wrap(err, errFailedCreateSubProject)
			}
		}

		now := b.now()
		insert := `
			INSERT INTO sub_projects (project_id, name, description, sort_order, documentation_enabled, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id
		`
		var id int64
		if err := tx.QueryRow(ctx, insert, in.ProjectID, strings.TrimSpace(in.Name), in.Description, sortOrder, in.DocumentationEnabled, now).Scan(&id); err != nil {
			return wrap(err, errFailedCreateSubProject)
		}
		if err := touchProject(ctx, tx, in.ProjectID, now); err != nil {
			return err
		}

		created, err = b.getSubProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (b *Backend) UpdateSubProject(ctx context.Context, id int64, in subproject.UpdateSubProjectInput) (*subproject.SubProject, error) {
	query := `
		UPDATE sub_projects SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			sort_order = COALESCE($4, sort_order),
			documentation_enabled = COALESCE($5, documentation_enabled),
			is_active = COALESCE($6, is_active),
			updated_at = $7
		WHERE id = $1
		RETURNING project_id
	`

	var updated *subproject.SubProject
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		now := b.now()
		var projectID int64
		err := tx.QueryRow(ctx, query, id, in.Name, in.Description, in.SortOrder, in.DocumentationEnabled, in.IsActive, now).Scan(&projectID)
		if isNoRows(err) {
			return apperrors.NotFound(msgSubProjectNotFound)
		}
		if err != nil {
			return wrap(err, errFailedUpdateSubProject)
		}
		if err := touchProject(ctx, tx, projectID, now); err != nil {
			return err
		}
		updated, err = b.getSubProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *Backend) DeleteSubProject(ctx context.Context, id int64) error {
	query := "UPDATE sub_projects SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active RETURNING project_id"
	return b.db.inTx(ctx, func(tx pgx.Tx) error {
		now := b.now()
		var projectID int64
		err := tx.QueryRow(ctx, query, id, now).Scan(&projectID)
		if isNoRows(err) {
			return apperrors.NotFound(msgSubProjectNotFound)
		}
		if err != nil {
			return wrap(err, errFailedDeleteSubProject)
		}
		return touchProject(ctx, tx, projectID, now)
	})
}

// ReorderSubProjects writes every sort order in one batch and returns the
// reordered project's sub-projects. An unknown id aborts the whole batch.
func (b *Backend) ReorderSubProjects(ctx context.Context, items []subproject.SortOrderItem) ([]subproject.SubProject, error) {
	if len(items) == 0 {
		return []subproject.SubProject{}, nil
	}

	var ordered []subproject.SubProject
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		now := b.now()
		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue("UPDATE sub_projects SET sort_order = $2, updated_at = $3 WHERE id = $1 RETURNING project_id", item.ID, item.SortOrder, now)
		}

		results := tx.SendBatch(ctx, batch)
		var projectID int64
		for range items {
			err := results.QueryRow().Scan(&projectID)
			if isNoRows(err) {
				results.Close()
				return apperrors.NotFound(msgSubProjectNotFound)
			}
			if err != nil {
				results.Close()
				return wrap(err, errFailedReorderSubProject)
			}
		}
		if err := results.Close(); err != nil {
			return wrap(err, errFailedReorderSubProject)
		}

		var err error
		query := "SELECT " + subProjectColumns + " WHERE project_id = $1 AND is_active ORDER BY sort_order, id"
		ordered, err = b.querySubProjects(ctx, tx, query, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// querySubProjects runs a sub-project query and hydrates each row with its
// contents, text commands and referenced images.
func (b *Backend) querySubProjects(ctx context.Context, q querier, query string, args ...any) ([]subproject.SubProject, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, errFailedListSubProjects)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (subproject.SubProject, error) {
		var s subproject.SubProject
		err := row.Scan(
			&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.SortOrder, &s.DocumentationEnabled,
			&s.DocumentationGeneratedAt, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		)
		return s, err
	})
	if err != nil {
		return nil, wrap(err, errFailedScanSubProject)
	}
	if len(subs) == 0 {
		return subs, nil
	}
	if err := b.hydrate(ctx, q, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (b *Backend) hydrate(ctx context.Context, q querier, subs []subproject.SubProject) error {
	ids := make([]int64, len(subs))
	index := make(map[int64]int, len(subs))
	for i := range subs {
		ids[i] = subs[i].ID
		index[subs[i].ID] = i
		subs[i].Contents = []content.Content{}
		subs[i].TextCommands = []content.TextCommand{}
	}

	contents, err := b.queryContents(ctx, q, "SELECT "+contentColumns+" WHERE ct.sub_project_id = ANY($1) ORDER BY ct.id", ids)
	if err != nil {
		return err
	}
	for _, c := range contents {
		s := &subs[index[c.SubProjectID]]
		s.Contents = append(s.Contents, c)
	}

	commands, err := queryCommands(ctx, q, "SELECT "+commandColumns+" WHERE sub_project_id = ANY($1) ORDER BY id", ids)
	if err != nil {
		return err
	}
	for _, cmd := range commands {
		s := &subs[index[cmd.SubProjectID]]
		s.TextCommands = append(s.TextCommands, cmd)
	}

	now := b.now()
	for i := range subs {
		subs[i].Refresh(b.calc, now)
	}
	return nil
}

func (b *Backend) queryContents(ctx context.Context, q querier, query string, args ...any) ([]content.Content, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, errFailedListContents)
	}
	contents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.Content, error) {
		var (
			c         content.Content
			fieldType string
		)
		err := row.Scan(
			&c.ID, &c.SubProjectID, &c.ContentValue, &c.ExpiryDays, &c.ExpiryDate,
			&c.UploadedImageID, &c.ShowInDocumentation, &c.CreatedAt, &c.UpdatedAt,
			&c.ContentType.ID, &c.ContentType.Name, &fieldType, &c.ContentType.HasExpiry,
			&c.ContentType.IsSystem, &c.ContentType.Description,
		)
		c.ContentType.FieldType = content.ParseFieldType(fieldType)
		return c, err
	})
	if err != nil {
		return nil, wrap(err, errFailedScanContent)
	}

	var imageIDs []int64
	for _, c := range contents {
		if c.UploadedImageID != nil {
			imageIDs = append(imageIDs, *c.UploadedImageID)
		}
	}
	if len(imageIDs) > 0 {
		images, err := queryImages(ctx, q, "SELECT "+imageColumns+" WHERE id = ANY($1)", imageIDs)
		if err != nil {
			return nil, err
		}
		byID := make(map[int64]image.Uploaded, len(images))
		for _, img := range images {
			byID[img.ID] = img
		}
		for i := range contents {
			if id := contents[i].UploadedImageID; id != nil {
				if img, ok := byID[*id]; ok {
					contents[i].UploadedImage = &img
				}
			}
		}
	}

	now := b.now()
	for i := range contents {
		contents[i].Refresh(b.calc, now)
	}
	return contents, nil
}

func queryCommands(ctx context.Context, q querier, query string, args ...any) ([]content.TextCommand, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, errFailedListCommands)
	}
	commands, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.TextCommand, error) {
		return scanCommand(row)
	})
	if err != nil {
		return nil, wrap(err, errFailedScanCommand)
	}
	return commands, nil
}

func touchProject(ctx context.Context, q querier, projectID int64, now time.Time) error {
	if _, err := q.Exec(ctx, "UPDATE projects SET updated_at = $2 WHERE id = $1", projectID, now); err != nil {
		return wrap(err, errFailedUpdateProject)
	}
	return nil
}

func touchSubProject(ctx context.Context, q querier, subProjectID int64, now time.Time) error {
	if _, err := q.Exec(ctx, "UPDATE sub_projects SET updated_at = $2 WHERE id = $1", subProjectID, now); err != nil {
		return wrap(err, errFailedUpdateSubProject)
	}
	return nil
}
