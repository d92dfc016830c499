package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"cps-console/internal/domain/image"
	"cps-console/internal/imagehost"
	apperrors "cps-console/pkg/errors"
	"cps-console/pkg/validator"
)

type ImageHandler struct {
	imageRepo ImageRepository
	uploader  ImageUploader
	maxBytes  int64
}

// NewImageHandler wires the image routes. uploader may be nil when no image
// host is configured; uploads are then refused.
func NewImageHandler(imageRepo ImageRepository, uploader ImageUploader, maxBytes int64) *ImageHandler {
	if maxBytes <= 0 {
		maxBytes = validator.DefaultMaxImageBytes()
	}
	return &ImageHandler{
		imageRepo: imageRepo,
		uploader:  uploader,
		maxBytes:  maxBytes,
	}
}

func (h *ImageHandler) ListUploadedImages(c echo.Context) error {
	images, err := h.imageRepo.ListUploadedImages(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, images)
}

// SaveUploadedImage records an image the caller already pushed to the host.
// A duplicate returns the existing record.
func (h *ImageHandler) SaveUploadedImage(c echo.Context) error {
	var req image.SaveInput
	if err := bindValid(c, &req); err != nil {
		return err
	}

	img, err := h.imageRepo.SaveUploadedImage(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, img)
}

// UploadImage takes a multipart "file" field, hosts it and records it.
func (h *ImageHandler) UploadImage(c echo.Context) error {
	if h.uploader == nil {
		return apperrors.Business(msgUploadUnavailable, http.StatusServiceUnavailable)
	}

	fh, err := c.FormFile(formFieldFile)
	if err != nil {
		return apperrors.BadRequest(msgFileRequired)
	}
	if err := validator.Image(fh.Header.Get(echo.HeaderContentType), fh.Size, h.maxBytes); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return apperrors.InternalServer(msgFileReadFailed, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		return apperrors.InternalServer(msgFileReadFailed, err)
	}

	img, err := h.uploader.Upload(c.Request().Context(), imagehost.File{
		Name:     fh.Filename,
		Mimetype: fh.Header.Get(echo.HeaderContentType),
		Data:     data,
	})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, img)
}
