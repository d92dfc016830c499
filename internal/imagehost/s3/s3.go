package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cps-console/internal/domain/image"
	"cps-console/internal/imagehost"
)

const (
	emptyAWSSessionToken         = ""
	defaultS3Region              = "us-east-1"
	pathSeparator                = '/'
	datePathLayout               = "2006/01/02"
	errFailedCreateAWSSessionFmt = "failed to create AWS session: %w"
	errFailedPutObjectFmt        = "failed to put object %s: %w"
	errBucketRequired            = "s3 bucket is required"
)

type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint points at an S3 compatible store and switches to path-style
	// addressing.
	Endpoint      string
	PublicBaseURL string
	KeyPrefix     string
}

type objectAPI interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Uploader stores images in a bucket and reports links the way a hosted
// image service would.
type Uploader struct {
	svc    objectAPI
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
	newKey func() string
}

// NewUploader creates a new S3 uploader.
func NewUploader(cfg Config, log *zap.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errBucketRequired)
	}
	if cfg.Region == "" {
		cfg.Region = defaultS3Region
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return newUploader(s3.New(sess), cfg, log), nil
}

func newUploader(svc objectAPI, cfg Config, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{
		svc:    svc,
		cfg:    cfg,
		log:    log.Named("s3"),
		now:    time.Now,
		newKey: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

func (u *Uploader) Upload(ctx context.Context, f imagehost.File) (image.Hosted, error) {
	key := u.newKey()
	ext := imagehost.Extension(f.Name)
	name := key
	if ext != "" {
		name += "." + ext
	}
	objectKey := BuildObjectKey(BuildObjectKey(u.cfg.KeyPrefix, u.now().UTC().Format(datePathLayout)), name)

	_, err := u.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(f.Mimetype),
	})
	if err != nil {
		return image.Hosted{}, fmt.Errorf(errFailedPutObjectFmt, objectKey, err)
	}

	md5Hex, sha1Hex := imagehost.Digests(f.Data)
	u.log.Debug("object stored", zap.String("bucket", u.cfg.Bucket), zap.String("key", objectKey))

	return image.Hosted{
		Key:        key,
		Name:       name,
		Pathname:   objectKey,
		OriginName: f.Name,
		Size:       int64(len(f.Data)),
		Mimetype:   f.Mimetype,
		Extension:  ext,
		MD5:        md5Hex,
		SHA1:       sha1Hex,
		Links:      linksFor(u.objectURL(objectKey), f.Name),
	}, nil
}

func (u *Uploader) objectURL(objectKey string) string {
	switch {
	case u.cfg.PublicBaseURL != "":
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + objectKey
	case u.cfg.Endpoint != "":
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + objectKey
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, objectKey)
	}
}

func linksFor(url, alt string) image.Links {
	return image.Links{
		URL:              url,
		HTML:             fmt.Sprintf(`<img src="%s" alt="%s" />`, url, alt),
		BBCode:           "[img]" + url + "[/img]",
		Markdown:         fmt.Sprintf("![%s](%s)", alt, url),
		MarkdownWithLink: fmt.Sprintf("[![%s](%s)](%s)", alt, url, url),
		ThumbnailURL:     url,
	}
}

func BuildObjectKey(folderPath, filename string) string {
	if folderPath == "" {
		return filename
	}

	if folderPath[len(folderPath)-1] != pathSeparator {
		folderPath += "/"
	}

	return folderPath + filename
}
