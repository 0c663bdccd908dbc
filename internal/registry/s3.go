package registry

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"certcheck/internal/certcheck"
	"certcheck/internal/config"
)

// S3Snapshot locates a JSON registry snapshot in an S3 bucket.
type S3Snapshot struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Snapshot builds an S3 client from cfg. Static credentials are used when
// configured, otherwise the default AWS credential chain. S3Endpoint points
// the client at an S3-compatible service with path-style addressing.
func NewS3Snapshot(ctx context.Context, cfg config.RegistryConfig) (*S3Snapshot, error) {
	if cfg.S3Bucket == "" || cfg.S3Key == "" {
		return nil, fmt.Errorf("s3_bucket and s3_key required for s3 registry")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Snapshot{client: client, bucket: cfg.S3Bucket, key: cfg.S3Key}, nil
}

// Load downloads the snapshot and returns a read-only store over it.
func (s *S3Snapshot) Load(ctx context.Context) (*Memory, error) {
	buf := manager.NewWriteAtBuffer(nil)
	downloader := manager.NewDownloader(s.client)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}); err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", s.bucket, s.key, err)
	}

	records, err := DecodeRecords(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot s3://%s/%s: %w", s.bucket, s.key, err)
	}
	records, err = normalizeAll(records)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return newSnapshot(records), nil
}

// Publish uploads records as the new snapshot.
func (s *S3Snapshot) Publish(ctx context.Context, records []certcheck.Record) error {
	var buf bytes.Buffer
	if err := EncodeRecords(&buf, records); err != nil {
		return err
	}
	uploader := manager.NewUploader(s.client)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}
