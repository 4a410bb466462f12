// internal/storage/uploader.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appErrors "seguros-cotacoes/internal/common/errors"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/quote"
)

// S3API is the slice of the S3 client the uploader needs.
type S3API interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, input *s3.HeadBucketInput) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, input *s3.CreateBucketInput) (*s3.CreateBucketOutput, error)
}

// Uploader stores policy files under <product>/<uuid>-<filename> and returns
// that path for the quote's attachment reference. The bucket is created
// lazily on first use.
type Uploader struct {
	client S3API
	bucket string
	logger logger.Logger

	mu            sync.Mutex
	bucketChecked bool
}

func NewUploader(client S3API, bucket string, log logger.Logger) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		logger: log.WithFields(map[string]interface{}{"component": "storage-uploader"}),
	}
}

func (u *Uploader) Upload(ctx context.Context, product quote.Product, att *quote.Attachment) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", appErrors.NewAttachmentUploadFailedError(err)
	}

	key := fmt.Sprintf("%s/%s-%s", product, uuid.New().String(), sanitizeFilename(att.Filename))

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(att.Data),
	}
	if att.ContentType != "" {
		input.ContentType = aws.String(att.ContentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		u.logger.Error("attachment upload failed", map[string]interface{}{
			"error":  err.Error(),
			"bucket": u.bucket,
			"key":    key,
		})
		return "", appErrors.NewAttachmentUploadFailedError(err)
	}

	u.logger.Info("attachment stored", map[string]interface{}{
		"bucket": u.bucket,
		"key":    key,
		"size":   len(att.Data),
	})
	return key, nil
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.bucketChecked {
		return nil
	}

	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	if err != nil {
		u.logger.Info("bucket not found, creating", map[string]interface{}{
			"bucket": u.bucket,
		})
		if _, err := u.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(u.bucket)}); err != nil {
			return fmt.Errorf("create bucket %s: %w", u.bucket, err)
		}
	}
	u.bucketChecked = true
	return nil
}

// sanitizeFilename keeps only the base name and replaces characters that are
// awkward in object keys.
func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "arquivo"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, base)
}
