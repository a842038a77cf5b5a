package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

// ErrUploadFailed wraps any rejection or transport failure from the object store.
var ErrUploadFailed = errors.New("object upload failed")

// objectAPI is the subset of the S3 client the adapter uses.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Storage struct {
	client  objectAPI
	bucket  string
	region  string
	baseURL string
	folder  string
}

type Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or custom domain; S3 virtual-host URL when empty
	Folder          string
}

func NewS3Storage(ctx context.Context, opts Options) *S3Storage {
	var cfg aws.Config
	var err error

	// Static credentials when provided, otherwise the default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region: opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"region": opts.Region,
				"error":  err.Error(),
			})
			cfg = aws.Config{Region: opts.Region}
		}
	}

	return newS3Storage(s3.NewFromConfig(cfg), opts)
}

func newS3Storage(client objectAPI, opts Options) *S3Storage {
	folder := strings.Trim(opts.Folder, "/")
	if folder == "" {
		folder = "products"
	}
	return &S3Storage{
		client:  client,
		bucket:  opts.Bucket,
		region:  opts.Region,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		folder:  folder,
	}
}

// Upload stores body under a fresh key and returns its public URL and the key, which is the
// identifier later passed to Delete. Every call creates a new object.
func (s *S3Storage) Upload(ctx context.Context, body []byte, contentType string) (string, string, error) {
	if contentType == "" {
		contentType = mimetype.Detect(body).String()
	}
	key := fmt.Sprintf("%s/%s%s", s.folder, uuid.New().String(), extensionFor(contentType))

	logger.Debug("Uploading object to S3", map[string]interface{}{
		"bucket":       s.bucket,
		"key":          key,
		"content_type": contentType,
		"bytes":        len(body),
	})

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		logger.Error("Failed to upload object to S3", err, map[string]interface{}{
			"bucket": s.bucket,
			"key":    key,
		})
		return "", "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return s.URLFor(key), key, nil
}

// Delete removes the object stored under key.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	logger.Debug("Deleting object from S3", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
	})

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// URLFor returns the public URL of key.
func (s *S3Storage) URLFor(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func extensionFor(contentType string) string {
	if mt := mimetype.Lookup(contentType); mt != nil {
		return mt.Extension()
	}
	return ""
}

// ValidateFileSize validates the file size
func ValidateFileSize(size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %d bytes", maxSize)
	}
	return nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("content type %s is not allowed", contentType)
}
