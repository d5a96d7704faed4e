package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"depot-backend/internal/config"
)

// MaxImageBytes caps purchase-order image uploads
const MaxImageBytes = 10 << 20

var ErrNotConfigured = errors.New("object storage not configured")

// S3Store keeps purchase-order images in any S3-compatible bucket
type S3Store struct {
	Client  *s3.Client
	Presign *s3.PresignClient
	Bucket  string
	expiry  time.Duration
}

// NewS3Store returns a disabled store when no bucket is configured
func NewS3Store(ctx context.Context, cfg config.Storage) (*S3Store, error) {
	if !cfg.Enabled() {
		return &S3Store{}, nil
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	minutes := cfg.PresignMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return &S3Store{
		Client:  client,
		Presign: s3.NewPresignClient(client),
		Bucket:  cfg.Bucket,
		expiry:  time.Duration(minutes) * time.Minute,
	}, nil
}

func (s *S3Store) Enabled() bool { return s != nil && s.Client != nil && s.Bucket != "" }

// Put uploads body under key
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited download URL for key
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrNotConfigured
	}
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(s.expiry), nil
}

// Delete removes key; used to clean up after a failed database write
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ImageExtension maps an image content type to a file extension. ok is false
// for anything that is not an image.
func ImageExtension(contentType, filename string) (string, bool) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !strings.HasPrefix(contentType, "image/") {
		return "", false
	}
	if ext, ok := imageExtensions[contentType]; ok {
		return ext, true
	}
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext, true
	}
	return ".img", true
}

// ReceivableImageKey builds receivables/<id>/<uuid><ext>
func ReceivableImageKey(receivableID int, ext string) string {
	return fmt.Sprintf("receivables/%d/%s%s", receivableID, uuid.NewString(), ext)
}
