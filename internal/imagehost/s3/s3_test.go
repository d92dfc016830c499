package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cps-console/internal/imagehost"
)

type fakeObjects struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeObjects) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestUploader(svc objectAPI, cfg Config) *Uploader {
	u := newUploader(svc, cfg, nil)
	u.now = func() time.Time { return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC) }
	u.newKey = func() string { return "abc123" }
	return u
}

func TestUpload(t *testing.T) {
	fake := &fakeObjects{}
	u := newTestUploader(fake, Config{Bucket: "cps", Region: "ap-east-1", KeyPrefix: "images"})

	hosted, err := u.Upload(context.Background(), imagehost.File{Name: "Banner.PNG", Mimetype: "image/png", Data: []byte("png")})
	require.NoError(t, err)

	assert.Equal(t, "cps", aws.StringValue(fake.input.Bucket))
	assert.Equal(t, "images/2025/06/10/abc123.png", aws.StringValue(fake.input.Key))
	assert.Equal(t, "image/png", aws.StringValue(fake.input.ContentType))
	assert.Equal(t, []byte("png"), fake.body)

	assert.Equal(t, "abc123", hosted.Key)
	assert.Equal(t, "abc123.png", hosted.Name)
	assert.Equal(t, "Banner.PNG", hosted.OriginName)
	assert.Equal(t, "png", hosted.Extension)
	assert.Equal(t, int64(3), hosted.Size)
	assert.Equal(t, "https://cps.s3.ap-east-1.amazonaws.com/images/2025/06/10/abc123.png", hosted.Links.URL)
	assert.Equal(t, "![Banner.PNG](https://cps.s3.ap-east-1.amazonaws.com/images/2025/06/10/abc123.png)", hosted.Links.Markdown)
	assert.Len(t, hosted.MD5, 32)
	assert.Len(t, hosted.SHA1, 40)
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"public base", Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com/k.png"},
		{"custom endpoint", Config{Bucket: "b", Endpoint: "http://minio:9000"}, "http://minio:9000/b/k.png"},
		{"aws", Config{Bucket: "b", Region: "us-east-1"}, "https://b.s3.us-east-1.amazonaws.com/k.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUploader(&fakeObjects{}, tt.cfg)
			assert.Equal(t, tt.want, u.objectURL("k.png"))
		})
	}
}

func TestUploadFailure(t *testing.T) {
	fake := &fakeObjects{err: errors.New("access denied")}
	u := newTestUploader(fake, Config{Bucket: "cps"})

	_, err := u.Upload(context.Background(), imagehost.File{Name: "a.jpg", Mimetype: "image/jpeg", Data: []byte{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.err)
	assert.Contains(t, err.Error(), "2025/06/10/abc123.jpg")
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	_, err := NewUploader(Config{}, nil)
	assert.Error(t, err)
}

func TestBuildObjectKey(t *testing.T) {
	assert.Equal(t, "a.png", BuildObjectKey("", "a.png"))
	assert.Equal(t, "x/a.png", BuildObjectKey("x", "a.png"))
	assert.Equal(t, "x/a.png", BuildObjectKey("x/", "a.png"))
}
