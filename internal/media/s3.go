// Package media issues short-lived signed URLs for payment QR images kept in
// S3-compatible object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrEmptyKey = errors.New("image key is empty")

// SignedURL is a presigned GET URL and the moment it stops working.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config holds the object storage settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	TTL       time.Duration
}

// presignGetObject is a seam for tests.
var presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return pc.PresignGetObject(ctx, in, optFns...)
}

// S3Signer presigns GET requests for objects in one bucket.
type S3Signer struct {
	client *s3.PresignClient
	bucket string
	ttl    time.Duration
	now    func() time.Time
}

// NewS3Signer builds a signer from cfg. A custom endpoint switches to
// path-style addressing so MinIO and similar stores work.
func NewS3Signer(ctx context.Context, cfg Config) (*S3Signer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewSigner(s3.NewPresignClient(client), cfg.Bucket, cfg.TTL), nil
}

// NewSigner wraps an existing presign client. ttl defaults to 15 minutes.
func NewSigner(client *s3.PresignClient, bucket string, ttl time.Duration) *S3Signer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Signer{client: client, bucket: bucket, ttl: ttl, now: time.Now}
}

// SignedImageURL presigns a GET for key.
func (s *S3Signer) SignedImageURL(ctx context.Context, key string) (SignedURL, error) {
	if key == "" {
		return SignedURL{}, ErrEmptyKey
	}

	issuedAt := s.now()
	req, err := presignGetObject(s.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return SignedURL{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return SignedURL{URL: req.URL, ExpiresAt: issuedAt.Add(s.ttl)}, nil
}
