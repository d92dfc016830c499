// Package imageupload runs the image upload flow: validate the file, push it
// to the image host, then record the hosted asset with the backend.
package imageupload

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"cps-console/internal/domain/image"
	"cps-console/internal/imagehost"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

const (
	defaultConcurrency = 3
	errDecodeConfigFmt = "failed to read image dimensions: %w"
	errHostUploadFmt   = "upload %s: %w"
)

// Saver persists hosted image metadata.
type Saver interface {
	SaveUploadedImage(ctx context.Context, in image.SaveInput) (*image.Uploaded, error)
}

type Config struct {
	MaxBytes    int64
	Concurrency int
	AlbumID     *int64
	Permission  *int
}

// Service uploads images to the configured host and records them.
type Service struct {
	host  imagehost.Uploader
	saver Saver
	cfg   Config
	log   *zap.Logger
}

// New creates a new upload service.
func New(host imagehost.Uploader, saver Saver, cfg Config, log *zap.Logger) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = validator.DefaultMaxImageBytes()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{host: host, saver: saver, cfg: cfg, log: log.Named("imageupload")}
}

func (s *Service) Validate(f imagehost.File) error {
	return validator.Image(f.Mimetype, int64(len(f.Data)), s.cfg.MaxBytes)
}

// Dimensions decodes only the image header.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf(errDecodeConfigFmt, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Upload hosts the file and records it. When the backend cannot record the
// asset the hosted image is still returned, with ID 0.
func (s *Service) Upload(ctx context.Context, f imagehost.File) (image.Uploaded, error) {
	if err := s.Validate(f); err != nil {
		return image.Uploaded{}, err
	}

	hosted, err := s.host.Upload(ctx, f)
	if err != nil {
		return image.Uploaded{}, err
	}
	s.fill(&hosted, f)

	saved, err := s.saver.SaveUploadedImage(ctx, hosted.SaveInput(s.cfg.AlbumID, s.cfg.Permission))
	if apperrors.IsCanceled(err) {
		return image.Uploaded{}, err
	}
	if err != nil || saved == nil {
		s.log.Warn("hosted image not recorded",
			zap.String("key", hosted.Key),
			zap.String("name", f.Name),
			zap.Error(err),
		)
		return hosted.Unsaved(s.cfg.AlbumID, s.cfg.Permission), nil
	}

	if saved.Key != hosted.Key {
		s.log.Info("duplicate image, reusing existing record",
			zap.String("key", hosted.Key),
			zap.String("existing", saved.Key),
			zap.Int64("id", saved.ID),
		)
	}
	return *saved, nil
}

// UploadMany uploads files with bounded concurrency. Failed files are logged
// and left out; the rest keep their input order.
func (s *Service) UploadMany(ctx context.Context, files []imagehost.File) []image.Uploaded {
	results := make([]*image.Uploaded, len(files))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			img, err := s.Upload(ctx, f)
			if err != nil {
				s.log.Warn("image upload failed", zap.Error(fmt.Errorf(errHostUploadFmt, f.Name, err)))
				return nil
			}
			results[i] = &img
			return nil
		})
	}
	_ = g.Wait()

	out := make([]image.Uploaded, 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// fill completes metadata the host left out.
func (s *Service) fill(h *image.Hosted, f imagehost.File) {
	if h.OriginName == "" {
		h.OriginName = f.Name
	}
	if h.Mimetype == "" {
		h.Mimetype = f.Mimetype
	}
	if h.Size == 0 {
		h.Size = int64(len(f.Data))
	}
	if h.Extension == "" {
		h.Extension = imagehost.Extension(f.Name)
	}
	if h.MD5 == "" || h.SHA1 == "" {
		h.MD5, h.SHA1 = imagehost.Digests(f.Data)
	}
	if h.Width == 0 || h.Height == 0 {
		w, ht, err := Dimensions(f.Data)
		if err != nil {
			s.log.Debug("dimensions unavailable", zap.String("name", f.Name), zap.Error(err))
			return
		}
		h.Width, h.Height = w, ht
	}
}
