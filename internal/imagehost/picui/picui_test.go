package picui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cps-console/internal/imagehost"
	apperrors "cps-console/pkg/errors"
)

type captured struct {
	auth      string
	fields    map[string]string
	fileName  string
	fileType  string
	fileBytes []byte
}

func newHost(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{fields: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/upload", r.URL.Path)
		got.auth = r.Header.Get("Authorization")
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		if files := r.MultipartForm.File["file"]; len(files) == 1 {
			got.fileName = files[0].Filename
			got.fileType = files[0].Header.Get("Content-Type")
			if f, err := files[0].Open(); assert.NoError(t, err) {
				got.fileBytes, _ = io.ReadAll(f)
				_ = f.Close()
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestUpload(t *testing.T) {
	srv, got := newHost(t, http.StatusOK, `{"status":true,"message":"ok","data":{
		"key":"k1","name":"x.png","pathname":"2025/06/x.png","origin_name":"banner.png","size":3,
		"mimetype":"image/png","extension":"png","md5":"m","sha1":"s",
		"links":{"url":"https://img/x.png","thumbnail_url":"https://img/t.png"}}}`)

	u := New(Config{URL: srv.URL + "/api/v1/", Token: "tok", AlbumID: 1761, Permission: 1}, nil)
	hosted, err := u.Upload(context.Background(), imagehost.File{Name: "banner.png", Mimetype: "image/png", Data: []byte{1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, "k1", hosted.Key)
	assert.Equal(t, "banner.png", hosted.OriginName)
	assert.Equal(t, int64(3), hosted.Size)
	assert.Equal(t, "https://img/t.png", hosted.Links.ThumbnailURL)

	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "1", got.fields["permission"])
	assert.Equal(t, "1761", got.fields["album_id"])
	assert.NotContains(t, got.fields, "expired_at")
	assert.Equal(t, "banner.png", got.fileName)
	assert.Equal(t, "image/png", got.fileType)
	assert.Equal(t, []byte{1, 2, 3}, got.fileBytes)
}

func TestUploadSendsExpiry(t *testing.T) {
	srv, got := newHost(t, http.StatusOK, `{"status":true,"data":{"key":"k"}}`)

	u := New(Config{URL: srv.URL + "/api/v1", ExpiresIn: 24 * time.Hour}, nil)
	u.now = func() time.Time { return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC) }

	_, err := u.Upload(context.Background(), imagehost.File{Name: "a.png", Mimetype: "image/png", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-11 09:00:00", got.fields["expired_at"])
	assert.Empty(t, got.auth)
}

func TestUploadRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		target  error
		message string
	}{
		{"host message", http.StatusOK, `{"status":false,"message":"图片已存在"}`, apperrors.ErrBusiness, "图片已存在"},
		{"no message", http.StatusOK, `{"status":false}`, apperrors.ErrBusiness, "上传失败"},
		{"gateway error", http.StatusBadGateway, `<html>bad gateway</html>`, apperrors.ErrTransport, "上传失败"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newHost(t, tt.status, tt.reply)
			u := New(Config{URL: srv.URL + "/api/v1"}, nil)

			_, err := u.Upload(context.Background(), imagehost.File{Name: "a.png", Mimetype: "image/png", Data: []byte{1}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
			assert.Equal(t, tt.message, apperrors.Message(err))
		})
	}
}
