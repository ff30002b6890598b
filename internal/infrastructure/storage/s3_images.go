// Package storage resolves product image references stored in an
// S3-compatible bucket into URLs the marketplaces can download.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	infraconfig "github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

const defaultPresignTTL = time.Hour

// ErrEmptyImageRef is returned for a blank image reference
var ErrEmptyImageRef = errors.New("storage: image reference is empty")

// S3ImageResolver presigns GET URLs for product images.
//
// References are resolved as follows:
//   - http:// and https:// URLs are returned unchanged
//   - s3://bucket/key is presigned in that bucket
//   - anything else is a key in the configured bucket
type S3ImageResolver struct {
	presigner  *s3.PresignClient
	bucket     string
	presignTTL time.Duration
	logger     *zap.Logger
}

var _ jobhandler.ImageResolver = (*S3ImageResolver)(nil)

// NewS3ImageResolver creates a resolver for any S3-compatible backend
// (AWS S3, MinIO, R2...). Presigning happens offline.
func NewS3ImageResolver(cfg infraconfig.StorageConfig, logger *zap.Logger) (*S3ImageResolver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint := normalizeEndpoint(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &S3ImageResolver{
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		presignTTL: ttl,
		logger:     logger,
	}, nil
}

// normalizeEndpoint adds https:// to a bare host; empty means AWS
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}

// ResolveImageURL implements jobhandler.ImageResolver
func (r *S3ImageResolver) ResolveImageURL(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyImageRef
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	bucket, key := r.locate(ref)
	if key == "" {
		return "", fmt.Errorf("storage: image reference %q has no key", ref)
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign image %s: %w", key, err)
	}
	return req.URL, nil
}

func (r *S3ImageResolver) locate(ref string) (bucket, key string) {
	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		bucket, key, _ = strings.Cut(rest, "/")
		return bucket, key
	}
	return r.bucket, strings.TrimLeft(ref, "/")
}
