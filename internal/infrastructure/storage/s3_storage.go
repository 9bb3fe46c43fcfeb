// Package storage provides object storage backends for export artifacts.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/captech/portal/internal/application/export"
	infraconfig "github.com/captech/portal/internal/infrastructure/config"
)

var _ export.ObjectStorage = (*S3ObjectStorage)(nil)

// S3ObjectStorage stores export artifacts in an S3-compatible bucket
// (AWS S3, MinIO, Scaleway Object Storage).
type S3ObjectStorage struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3ObjectStorage creates an S3 storage backend from configuration
func NewS3ObjectStorage(cfg *infraconfig.StorageConfig, logger *zap.Logger) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	region := cfg.Region
	if region == "" {
		region = "eu-west-3"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
			// non-AWS endpoints generally want path-style addressing
			o.UsePathStyle = true
		}
	})

	return &S3ObjectStorage{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Put uploads an artifact under the given key
func (s *S3ObjectStorage) Put(ctx context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	s.logger.Debug("artifact uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return nil
}
