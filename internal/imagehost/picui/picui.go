// Package picui uploads images to a PicUI compatible image host.
package picui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/domain/image"
	"cps-console/internal/imagehost"
	"cps-console/internal/normalize"
	apperrors "cps-console/pkg/errors"
)

const (
	uploadPath        = "/upload"
	fieldFile         = "file"
	fieldPermission   = "permission"
	fieldAlbumID      = "album_id"
	fieldExpiredAt    = "expired_at"
	defaultTimeout    = 60 * time.Second
	maxResponseBytes  = 1 << 20
	expiredAtLayout   = "2006-01-02 15:04:05"
	msgUploadFailed   = "上传失败"
	errBuildFormFmt   = "failed to build upload form: %w"
	errBuildReqFmt    = "failed to build upload request: %w"
	errDecodeReplyFmt = "failed to decode image host reply: %w"
)

type Config struct {
	URL        string
	Token      string
	AlbumID    int64
	Permission int
	// ExpiresIn sets an expiry on the hosted asset; zero keeps it forever.
	ExpiresIn  time.Duration
	HTTPClient *http.Client
}

type Uploader struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
	now  func() time.Time
}

// New creates a new PicUI uploader.
func New(cfg Config, log *zap.Logger) *Uploader {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Uploader{cfg: cfg, http: client, log: log.Named("picui"), now: time.Now}
}

type reply struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Data    normalize.Raw `json:"data"`
}

// Upload posts the file as multipart form data. A reply whose status is
// false is a business rejection carrying the host's message.
func (u *Uploader) Upload(ctx context.Context, f imagehost.File) (image.Hosted, error) {
	body, contentType, err := u.form(f)
	if err != nil {
		return image.Hosted{}, fmt.Errorf(errBuildFormFmt, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.URL+uploadPath, body)
	if err != nil {
		return image.Hosted{}, fmt.Errorf(errBuildReqFmt, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if u.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.cfg.Token)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return image.Hosted{}, apperrors.Canceled()
		}
		return image.Hosted{}, apperrors.Transport(msgUploadFailed, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return image.Hosted{}, apperrors.Transport(msgUploadFailed, resp.StatusCode, err)
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return image.Hosted{}, apperrors.Transport(msgUploadFailed, resp.StatusCode, nil)
		}
		return image.Hosted{}, apperrors.Transport(msgUploadFailed, resp.StatusCode, fmt.Errorf(errDecodeReplyFmt, err))
	}
	if !r.Status || r.Data == nil {
		msg := r.Message
		if msg == "" {
			msg = msgUploadFailed
		}
		return image.Hosted{}, apperrors.Business(msg, resp.StatusCode)
	}

	hosted := normalize.HostedImage(r.Data)
	u.log.Debug("image hosted", zap.String("key", hosted.Key), zap.Int64("size", hosted.Size))
	return hosted, nil
}

func (u *Uploader) form(f imagehost.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldFile, f.Name))
	h.Set("Content-Type", f.Mimetype)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", err
	}

	fields := map[string]string{}
	if u.cfg.Permission > 0 {
		fields[fieldPermission] = strconv.Itoa(u.cfg.Permission)
	}
	if u.cfg.AlbumID > 0 {
		fields[fieldAlbumID] = strconv.FormatInt(u.cfg.AlbumID, 10)
	}
	if u.cfg.ExpiresIn > 0 {
		fields[fieldExpiredAt] = u.now().Add(u.cfg.ExpiresIn).Format(expiredAtLayout)
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
