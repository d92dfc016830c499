package image

import "time"

// Links are the ready-made references an image host returns.
type Links struct {
	URL              string `json:"url"`
	HTML             string `json:"html"`
	BBCode           string `json:"bbcode"`
	Markdown         string `json:"markdown"`
	MarkdownWithLink string `json:"markdown_with_link"`
	ThumbnailURL     string `json:"thumbnail_url"`
	DeleteURL        string `json:"delete_url"`
}

// Uploaded is an image stored on the external host and recorded by the
// backend. ID is 0 when the backend record could not be saved.
type Uploaded struct {
	ID         int64      `json:"id"`
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Pathname   string     `json:"pathname"`
	OriginName string     `json:"originName"`
	Size       int64      `json:"size"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	Mimetype   string     `json:"mimetype"`
	Extension  string     `json:"extension"`
	MD5        string     `json:"md5"`
	SHA1       string     `json:"sha1"`
	Links      Links      `json:"links"`
	AlbumID    *int64     `json:"albumId,omitempty"`
	Permission *int       `json:"permission,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Hosted is the metadata an image host returns for a fresh upload.
type Hosted struct {
	Key        string
	Name       string
	Pathname   string
	OriginName string
	Size       int64
	Width      int
	Height     int
	Mimetype   string
	Extension  string
	MD5        string
	SHA1       string
	Links      Links
}

// SaveInput records a hosted image.
type SaveInput struct {
	Key        string `json:"key" validate:"required"`
	Name       string `json:"name"`
	Pathname   string `json:"pathname"`
	OriginName string `json:"originName"`
	Size       int64  `json:"size" validate:"gte=0"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Mimetype   string `json:"mimetype"`
	Extension  string `json:"extension"`
	MD5        string `json:"md5"`
	SHA1       string `json:"sha1"`
	Links      Links  `json:"links"`
	AlbumID    *int64 `json:"albumId,omitempty"`
	Permission *int   `json:"permission,omitempty"`
}

func (h Hosted) SaveInput(albumID *int64, permission *int) SaveInput {
	return SaveInput{
		Key:        h.Key,
		Name:       h.Name,
		Pathname:   h.Pathname,
		OriginName: h.OriginName,
		Size:       h.Size,
		Width:      h.Width,
		Height:     h.Height,
		Mimetype:   h.Mimetype,
		Extension:  h.Extension,
		MD5:        h.MD5,
		SHA1:       h.SHA1,
		Links:      h.Links,
		AlbumID:    albumID,
		Permission: permission,
	}
}

// Unsaved builds the record returned when the backend could not persist a
// hosted image.
func (h Hosted) Unsaved(albumID *int64, permission *int) Uploaded {
	return Uploaded{
		Key:        h.Key,
		Name:       h.Name,
		Pathname:   h.Pathname,
		OriginName: h.OriginName,
		Size:       h.Size,
		Width:      h.Width,
		Height:     h.Height,
		Mimetype:   h.Mimetype,
		Extension:  h.Extension,
		MD5:        h.MD5,
		SHA1:       h.SHA1,
		Links:      h.Links,
		AlbumID:    albumID,
		Permission: permission,
	}
}
