package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	appconfig "bkp-platform/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStat is what confirmation needs to know about a stored object.
type ObjectStat struct {
	Size        int64
	ContentType string
}

// ObjectStore is the storage boundary the upload service depends on. The S3
// implementation is below; tests use a fake.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	Head(ctx context.Context, key string) (ObjectStat, error)
	PublicURL(key string) string
}

// S3Store implements ObjectStore on S3 or any S3-compatible endpoint
// (MinIO, LocalStack).
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       appconfig.S3Config
}

func NewS3Store(ctx context.Context, cfg appconfig.S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing is required for MinIO and LocalStack.
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
	}, nil
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) Head(ctx context.Context, key string) (ObjectStat, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectStat{}, ErrNotUploaded
	}
	if out.ContentLength == nil || out.ContentType == nil {
		return ObjectStat{}, errors.New("object missing content-length or content-type")
	}
	return ObjectStat{Size: *out.ContentLength, ContentType: *out.ContentType}, nil
}

func (s *S3Store) PublicURL(key string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
