package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"cps-console/internal/domain/content"
	"cps-console/internal/expiry"
	apperrors "cps-console/pkg/errors"
)

const contentTypeColumns = "id, name, field_type, has_expiry, is_system, description FROM content_types"

func (b *Backend) ListContentTypes(ctx context.Context) ([]content.Type, error) {
	rows, err := b.db.Pool.Query(ctx, "SELECT "+contentTypeColumns+" ORDER BY id")
	if err != nil {
		return nil, wrap(err, errFailedListContentTypes)
	}
	types, err := pgx.CollectRows(rows, scanContentType)
	if err != nil {
		return nil, wrap(err, errFailedScanContentType)
	}
	return types, nil
}

func getContentType(ctx context.Context, q querier, id int64) (*content.Type, error) {
	rows, err := q.Query(ctx, "SELECT "+contentTypeColumns+" WHERE id = $1", id)
	if err != nil {
		return nil, wrap(err, errFailedGetContentType)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanContentType)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(msgContentTypeNotFound)
		}
		return nil, wrap(err, errFailedGetContentType)
	}
	return &t, nil
}

func (b *Backend) CreateContentType(ctx context.Context, in content.CreateTypeInput) (*content.Type, error) {
	query := `
		INSERT INTO content_types (name, field_type, has_expiry, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	fieldType := string(content.ParseFieldType(string(in.FieldType)))
	if err := b.db.Pool.QueryRow(ctx, query, strings.TrimSpace(in.Name), fieldType, in.HasExpiry, in.Description).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(msgContentTypeExists)
		}
		return nil, wrap(err, errFailedCreateContentType)
	}
	return getContentType(ctx, b.db.Pool, id)
}

func (b *Backend) UpdateContentType(ctx context.Context, id int64, in content.UpdateTypeInput) (*content.Type, error) {
	query := `
		UPDATE content_types SET
			name = COALESCE($2, name),
			field_type = COALESCE($3, field_type),
			has_expiry = COALESCE($4, has_expiry),
			description = COALESCE($5, description)
		WHERE id = $1
	`

	var fieldType *string
	if in.FieldType != nil {
		ft := string(content.ParseFieldType(string(*in.FieldType)))
		fieldType = &ft
	}

	result, err := b.db.Pool.Exec(ctx, query, id, in.Name, fieldType, in.HasExpiry, in.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(msgContentTypeExists)
		}
		return nil, wrap(err, errFailedUpdateContentType)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.NotFound(msgContentTypeNotFound)
	}
	return getContentType(ctx, b.db.Pool, id)
}

// DeleteContentType refuses system types and types still referenced by a
// content item.
func (b *Backend) DeleteContentType(ctx context.Context, id int64) error {
	t, err := getContentType(ctx, b.db.Pool, id)
	if err != nil {
		return err
	}
	if t.IsSystem {
		return apperrors.SystemTypeProtected()
	}

	if _, err := b.db.Pool.Exec(ctx, "DELETE FROM content_types WHERE id = $1 AND NOT is_system", id); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict(msgContentTypeInUse)
		}
		return wrap(err, errFailedDeleteContentType)
	}
	return nil
}

func (b *Backend) CreateContent(ctx context.Context, in content.SaveContentInput) (*content.Content, error) {
	var created *content.Content
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireActiveSubProject(ctx, tx, in.SubProjectID); err != nil {
			return err
		}
		if _, err := getContentType(ctx, tx, in.ContentTypeID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.BadRequest(msgContentTypeNotFound)
			}
			return err
		}

		now := b.now()
		show := in.ShowInDocumentation == nil || *in.ShowInDocumentation
		query := `
			INSERT INTO contents (sub_project_id, content_type_id, content_value, expiry_days, expiry_date,
				uploaded_image_id, show_in_documentation, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $8)
			RETURNING id
		`
		var id int64
		err := tx.QueryRow(ctx, query, in.SubProjectID, in.ContentTypeID, in.ContentValue, in.ExpiryDays,
			nullableDate(contentExpiryDate(in, now)), in.UploadedImageID, show, now).Scan(&id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.BadRequest(msgImageNotFound)
			}
			return wrap(err, errFailedCreateContent)
		}
		if err := touchSubProject(ctx, tx, in.SubProjectID, now); err != nil {
			return err
		}

		created, err = b.getContent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateContent replaces the value, type and expiry of a content item.
// Omitting ExpiryDays clears the expiry; omitting ShowInDocumentation keeps
// the current visibility.
func (b *Backend) UpdateContent(ctx context.Context, id int64, in content.SaveContentInput) (*content.Content, error) {
	var updated *content.Content
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := getContentType(ctx, tx, in.ContentTypeID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.BadRequest(msgContentTypeNotFound)
			}
			return err
		}

		now := b.now()
		query := `
			UPDATE contents SET
				content_type_id = $2,
				content_value = $3,
				expiry_days = $4,
				expiry_date = $5::date,
				uploaded_image_id = $6,
				show_in_documentation = COALESCE($7, show_in_documentation),
				updated_at = $8
			WHERE id = $1
			RETURNING sub_project_id
		`
		var subProjectID int64
		err := tx.QueryRow(ctx, query, id, in.ContentTypeID, in.ContentValue, in.ExpiryDays,
			nullableDate(contentExpiryDate(in, now)), in.UploadedImageID, in.ShowInDocumentation, now).Scan(&subProjectID)
		if isNoRows(err) {
			return apperrors.NotFound(msgContentNotFound)
		}
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.BadRequest(msgImageNotFound)
			}
			return wrap(err, errFailedUpdateContent)
		}
		if err := touchSubProject(ctx, tx, subProjectID, now); err != nil {
			return err
		}

		updated, err = b.getContent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *Backend) DeleteContent(ctx context.Context, id int64) error {
	return b.db.inTx(ctx, func(tx pgx.Tx) error {
		var subProjectID int64
		err := tx.QueryRow(ctx, "DELETE FROM contents WHERE id = $1 RETURNING sub_project_id", id).Scan(&subProjectID)
		if isNoRows(err) {
			return apperrors.NotFound(msgContentNotFound)
		}
		if err != nil {
			return wrap(err, errFailedDeleteContent)
		}
		return touchSubProject(ctx, tx, subProjectID, b.now())
	})
}

func (b *Backend) getContent(ctx context.Context, q querier, id int64) (*content.Content, error) {
	contents, err := b.queryContents(ctx, q, "SELECT "+contentColumns+" WHERE ct.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, apperrors.NotFound(msgContentNotFound)
	}
	return &contents[0], nil
}

func (b *Backend) CreateTextCommand(ctx context.Context, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	var created *content.TextCommand
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireActiveSubProject(ctx, tx, in.SubProjectID); err != nil {
			return err
		}

		now := b.now()
		query := `
			INSERT INTO text_commands (sub_project_id, command_text, expiry_days, expiry_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4::date, $5, $5)
			RETURNING ` + commandFields
		cmd, err := scanCommand(tx.QueryRow(ctx, query, in.SubProjectID, strings.TrimSpace(in.CommandText),
			in.ExpiryDays, expiry.DateAfter(in.ExpiryDays, now), now))
		if err != nil {
			return wrap(err, errFailedCreateCommand)
		}
		if err := touchSubProject(ctx, tx, in.SubProjectID, now); err != nil {
			return err
		}

		cmd.Refresh(b.calc, now)
		created = &cmd
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (b *Backend) UpdateTextCommand(ctx context.Context, id int64, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	var updated *content.TextCommand
	err := b.db.inTx(ctx, func(tx pgx.Tx) error {
		now := b.now()
		query := `
			UPDATE text_commands SET
				command_text = $2,
				expiry_days = $3,
				expiry_date = $4::date,
				updated_at = $5
			WHERE id = $1
			RETURNING ` + commandFields
		cmd, err := scanCommand(tx.QueryRow(ctx, query, id, strings.TrimSpace(in.CommandText),
			in.ExpiryDays, expiry.DateAfter(in.ExpiryDays, now), now))
		if isNoRows(err) {
			return apperrors.NotFound(msgCommandNotFound)
		}
		if err != nil {
			return wrap(err, errFailedUpdateCommand)
		}
		if err := touchSubProject(ctx, tx, cmd.SubProjectID, now); err != nil {
			return err
		}

		cmd.Refresh(b.calc, now)
		updated = &cmd
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *Backend) DeleteTextCommand(ctx context.Context, id int64) error {
	result, err := b.db.Pool.Exec(ctx, "DELETE FROM text_commands WHERE id = $1", id)
	if err != nil {
		return wrap(err, errFailedDeleteCommand)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound(msgCommandNotFound)
	}
	return nil
}

// BulkDeleteTextCommands removes every listed command that exists. Unknown
// ids are ignored.
func (b *Backend) BulkDeleteTextCommands(ctx context.Context, in content.BulkDeleteTextCommandsInput) error {
	if len(in.IDs) == 0 {
		return nil
	}
	if _, err := b.db.Pool.Exec(ctx, "DELETE FROM text_commands WHERE id = ANY($1)", in.IDs); err != nil {
		return wrap(err, errFailedDeleteCommand)
	}
	return nil
}

func requireActiveSubProject(ctx context.Context, q querier, id int64) error {
	var active bool
	err := q.QueryRow(ctx, "SELECT is_active FROM sub_projects WHERE id = $1", id).Scan(&active)
	if isNoRows(err) || (err == nil && !active) {
		return apperrors.BadRequest(msgSubProjectNotFound)
	}
	if err != nil {
		return wrap(err, errFailedGetSubProject)
	}
	return nil
}

// contentExpiryDate is the calendar date the item expires on, or "" when
// the item carries no expiry.
func contentExpiryDate(in content.SaveContentInput, now time.Time) string {
	if in.ExpiryDays == nil {
		return ""
	}
	return expiry.DateAfter(*in.ExpiryDays, now)
}

func scanContentType(row pgx.CollectableRow) (content.Type, error) {
	var (
		t         content.Type
		fieldType string
	)
	err := row.Scan(&t.ID, &t.Name, &fieldType, &t.HasExpiry, &t.IsSystem, &t.Description)
	t.FieldType = content.ParseFieldType(fieldType)
	return t, err
}

func scanCommand(row pgx.Row) (content.TextCommand, error) {
	var cmd content.TextCommand
	err := row.Scan(&cmd.ID, &cmd.SubProjectID, &cmd.CommandText, &cmd.ExpiryDays, &cmd.ExpiryDate, &cmd.CreatedAt, &cmd.UpdatedAt)
	return cmd, err
}
