package blob

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store is the blob-store capability consumed by the core. Keys are
// bucket-relative paths like "exchange-files/{org}/{sha}.csv".
type Store interface {
	Upload(ctx context.Context, key string, data []byte) error
	GeneratePresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	FullKey(key string) string
}

const presignExpiry = 15 * time.Minute

// S3Store is a Store backed by S3 (or an S3-compatible endpoint).
type S3Store struct {
	svc     *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewS3Store builds an S3-backed store. endpoint may be empty for real AWS;
// set it for MinIO/LocalStack.
func NewS3Store(ctx context.Context, bucket, region, endpoint, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	svc := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{
		svc:     svc,
		presign: s3.NewPresignClient(svc),
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}, nil
}

func (s *S3Store) FullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Upload(ctx context.Context, key string, data []byte) error {
	_, err := s.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.FullKey(key)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *S3Store) GeneratePresignedURL(ctx context.Context, key string) (string, error) {
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.FullKey(key)),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.svc.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.FullKey(key)),
	})
	return err
}
