package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"cps-console/internal/domain/image"
)

const imageColumns = `
	id, image_key, name, pathname, origin_name, size_bytes, width, height,
	mimetype, extension, md5, sha1, links, album_id, permission, created_at, updated_at
	FROM uploaded_images`

// SaveUploadedImage records a hosted image. An image already known by MD5,
// or by key when the input carries no MD5, is returned instead of stored
// twice. A known key with a different MD5 replaces that record in place.
func (b *Backend) SaveUploadedImage(ctx context.Context, in image.SaveInput) (*image.Uploaded, error) {
	if existing, err := b.findImage(ctx, in); err != nil || existing != nil {
		return existing, err
	}

	query := `
		INSERT INTO uploaded_images (image_key, name, pathname, origin_name, size_bytes, width, height,
			mimetype, extension, md5, sha1, links, album_id, permission, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		ON CONFLICT (image_key) DO UPDATE SET
			name = EXCLUDED.name,
			pathname = EXCLUDED.pathname,
			origin_name = EXCLUDED.origin_name,
			size_bytes = EXCLUDED.size_bytes,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			mimetype = EXCLUDED.mimetype,
			extension = EXCLUDED.extension,
			md5 = EXCLUDED.md5,
			sha1 = EXCLUDED.sha1,
			links = EXCLUDED.links,
			album_id = EXCLUDED.album_id,
			permission = EXCLUDED.permission,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id int64
	err := b.db.Pool.QueryRow(ctx, query,
		in.Key, in.Name, in.Pathname, in.OriginName, in.Size, in.Width, in.Height,
		in.Mimetype, in.Extension, in.MD5, in.SHA1, in.Links, in.AlbumID, in.Permission, b.now(),
	).Scan(&id)
	if err != nil {
		return nil, wrap(err, errFailedSaveImage)
	}

	images, err := queryImages(ctx, b.db.Pool, "SELECT "+imageColumns+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}
	return &images[0], nil
}

func (b *Backend) ListUploadedImages(ctx context.Context) ([]image.Uploaded, error) {
	return queryImages(ctx, b.db.Pool, "SELECT "+imageColumns+" ORDER BY id")
}

func (b *Backend) findImage(ctx context.Context, in image.SaveInput) (*image.Uploaded, error) {
	images, err := queryImages(ctx, b.db.Pool,
		"SELECT "+imageColumns+" WHERE CASE WHEN $2 <> '' THEN md5 = $2 ELSE image_key = $1 END ORDER BY id LIMIT 1",
		in.Key, in.MD5)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}
	return &images[0], nil
}

func queryImages(ctx context.Context, q querier, query string, args ...any) ([]image.Uploaded, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, errFailedListImages)
	}
	images, err := pgx.CollectRows(rows, scanImage)
	if err != nil {
		return nil, wrap(err, errFailedScanImage)
	}
	return images, nil
}

func scanImage(row pgx.CollectableRow) (image.Uploaded, error) {
	var (
		img       image.Uploaded
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&img.ID, &img.Key, &img.Name, &img.Pathname, &img.OriginName, &img.Size, &img.Width, &img.Height,
		&img.Mimetype, &img.Extension, &img.MD5, &img.SHA1, &img.Links, &img.AlbumID, &img.Permission,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return image.Uploaded{}, err
	}
	img.CreatedAt = &createdAt
	img.UpdatedAt = &updatedAt
	return img, nil
}
