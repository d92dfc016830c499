package imageupload

import (
	"bytes"
	"context"
	"errors"
	stdimage "image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"cps-console/internal/backend/memory"
	"cps-console/internal/domain/image"
	"cps-console/internal/imagehost"
	apperrors "cps-console/pkg/errors"
)

type fakeHost struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (h *fakeHost) Upload(_ context.Context, f imagehost.File) (image.Hosted, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if err := h.fail[f.Name]; err != nil {
		return image.Hosted{}, err
	}
	return image.Hosted{Key: "k-" + f.Name, Name: f.Name, Links: image.Links{URL: "https://img/" + f.Name}}, nil
}

type failingSaver struct{ err error }

func (s failingSaver) SaveUploadedImage(context.Context, image.SaveInput) (*image.Uploaded, error) {
	return nil, s.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	svc := New(&fakeHost{}, memory.New(), Config{MaxBytes: 4}, nil)

	tests := []struct {
		name    string
		file    imagehost.File
		wantErr bool
	}{
		{"ok", imagehost.File{Name: "a.png", Mimetype: "image/png", Data: []byte{1, 2}}, false},
		{"not an image", imagehost.File{Name: "a.pdf", Mimetype: "application/pdf", Data: []byte{1}}, true},
		{"empty", imagehost.File{Name: "a.png", Mimetype: "image/png"}, true},
		{"too large", imagehost.File{Name: "a.png", Mimetype: "image/png", Data: []byte{1, 2, 3, 4, 5}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(pngBytes(t, 12, 7))
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 7, h)

	_, _, err = Dimensions([]byte("not an image"))
	assert.Error(t, err)
}

func TestUploadRecordsImage(t *testing.T) {
	host := &fakeHost{}
	backend := memory.New()
	album := int64(1761)
	svc := New(host, backend, Config{AlbumID: &album}, nil)
	data := pngBytes(t, 4, 3)

	img, err := svc.Upload(context.Background(), imagehost.File{Name: "Banner.png", Mimetype: "image/png", Data: data})
	require.NoError(t, err)
	assert.Equal(t, int64(1), img.ID)
	assert.Equal(t, "k-Banner.png", img.Key)
	assert.Equal(t, "Banner.png", img.OriginName)
	assert.Equal(t, int64(len(data)), img.Size)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, "png", img.Extension)
	assert.Len(t, img.MD5, 32)
	require.NotNil(t, img.AlbumID)
	assert.Equal(t, album, *img.AlbumID)

	stored, err := backend.ListUploadedImages(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestUploadDuplicateReusesRecord(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := New(&fakeHost{}, memory.New(), Config{}, zap.New(core))
	data := pngBytes(t, 2, 2)
	ctx := context.Background()

	first, err := svc.Upload(ctx, imagehost.File{Name: "a.png", Mimetype: "image/png", Data: data})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, imagehost.File{Name: "b.png", Mimetype: "image/png", Data: data})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "k-a.png", second.Key)
	assert.Equal(t, 1, logs.FilterMessage("duplicate image, reusing existing record").Len())
}

func TestUploadUnsavedWhenBackendFails(t *testing.T) {
	svc := New(&fakeHost{}, failingSaver{err: apperrors.Transport("网络错误", 502, nil)}, Config{}, nil)

	img, err := svc.Upload(context.Background(), imagehost.File{Name: "a.png", Mimetype: "image/png", Data: pngBytes(t, 1, 1)})
	require.NoError(t, err)
	assert.Zero(t, img.ID)
	assert.Equal(t, "k-a.png", img.Key)
	assert.Equal(t, "https://img/a.png", img.Links.URL)
}

func TestUploadCanceledWhileSaving(t *testing.T) {
	svc := New(&fakeHost{}, failingSaver{err: apperrors.Canceled()}, Config{}, nil)

	_, err := svc.Upload(context.Background(), imagehost.File{Name: "a.png", Mimetype: "image/png", Data: pngBytes(t, 1, 1)})
	assert.True(t, apperrors.IsCanceled(err))
}

func TestUploadHostFailure(t *testing.T) {
	hostErr := apperrors.Business("上传失败", 200)
	host := &fakeHost{fail: map[string]error{"a.png": hostErr}}
	svc := New(host, memory.New(), Config{}, nil)

	_, err := svc.Upload(context.Background(), imagehost.File{Name: "a.png", Mimetype: "image/png", Data: []byte{1}})
	assert.True(t, errors.Is(err, apperrors.ErrBusiness))
}

func TestUploadManySkipsFailures(t *testing.T) {
	host := &fakeHost{fail: map[string]error{"b.png": errors.New("boom")}}
	svc := New(host, memory.New(), Config{Concurrency: 2}, nil)

	files := []imagehost.File{
		{Name: "a.png", Mimetype: "image/png", Data: pngBytes(t, 1, 1)},
		{Name: "b.png", Mimetype: "image/png", Data: pngBytes(t, 2, 1)},
		{Name: "c.gif", Mimetype: "text/plain", Data: []byte{1}},
		{Name: "d.png", Mimetype: "image/png", Data: pngBytes(t, 3, 1)},
	}

	got := svc.UploadMany(context.Background(), files)
	require.Len(t, got, 2)
	assert.Equal(t, "k-a.png", got[0].Key)
	assert.Equal(t, "k-d.png", got[1].Key)
	assert.Equal(t, 3, host.calls, "invalid files never reach the host")
}
