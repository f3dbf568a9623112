package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/config"
)

// ScreenshotPrefix is the object key prefix for payment proofs
const ScreenshotPrefix = "payment-screenshots/"

// BlobStore stores payment screenshots in external object storage
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL extracts the object key from a public URL returned by Upload
	KeyFromURL(rawURL string) (string, error)
}

// s3API is the subset of the S3 client used here
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// R2Store is a BlobStore backed by Cloudflare R2 through the S3 API
type R2Store struct {
	client  s3API
	bucket  string
	baseURL *url.URL
}

// NewR2Store builds an S3 client pointed at the account's R2 endpoint
func NewR2Store(ctx context.Context, cfg *config.Config) (*R2Store, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretKey == "" {
		return nil, fmt.Errorf("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY must be set")
	}
	if cfg.R2Bucket == "" {
		return nil, fmt.Errorf("R2_BUCKET_NAME must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"), // R2 ignores the region but the SDK requires one
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	base := cfg.R2PublicBaseURL
	if base == "" {
		base = endpoint + "/" + cfg.R2Bucket
	}
	return newR2Store(client, cfg.R2Bucket, base)
}

func newR2Store(client s3API, bucket, publicBaseURL string) (*R2Store, error) {
	u, err := url.Parse(strings.TrimRight(publicBaseURL, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid public base URL %q", publicBaseURL)
	}
	return &R2Store{client: client, bucket: bucket, baseURL: u}, nil
}

func (s *R2Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperr.Infra("screenshot upload failed", err)
	}
	return s.baseURL.String() + "/" + key, nil
}

func (s *R2Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Infra("screenshot delete failed", err)
	}
	return nil
}

// KeyFromURL accepts only URLs under the public base URL and returns the
// remaining path as the object key.
func (s *R2Store) KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", apperr.NewValidation("screenshot_url", "not a valid URL")
	}
	if !strings.EqualFold(u.Host, s.baseURL.Host) {
		return "", apperr.NewValidation("screenshot_url", "not hosted in the screenshot bucket")
	}

	prefix := s.baseURL.Path + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", apperr.NewValidation("screenshot_url", "not hosted in the screenshot bucket")
	}
	key := strings.TrimPrefix(u.Path, prefix)
	if key == "" {
		return "", apperr.NewValidation("screenshot_url", "missing object key")
	}
	return key, nil
}
