// Package s3 reads source spreadsheets from, and uploads new ones to, an S3
// bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

// API is the subset of the S3 client used by Store.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner issues presigned PUT requests.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store addresses objects as <prefix><name> inside one bucket.
type Store struct {
	client    API
	presigner Presigner
	bucket    string
	prefix    string
	region    string
}

// New creates a Store from explicit clients.
func New(client API, presigner Presigner, bucket, prefix, region string) *Store {
	return &Store{client: client, presigner: presigner, bucket: bucket, prefix: prefix, region: region}
}

// NewFromEnv loads the default AWS configuration for region.
func NewFromEnv(ctx context.Context, bucket, prefix, region string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return New(client, s3.NewPresignClient(client), bucket, prefix, region), nil
}

// Key returns the object key for a file name.
func (s *Store) Key(name string) string {
	return s.prefix + strings.TrimPrefix(name, s.prefix)
}

// Fetch reads a spreadsheet by file name. A missing object returns
// domain.ErrObjectNotFound.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := s.Key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", domain.ErrObjectNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// Upload stores body under name with the original file name and upload time
// as object metadata. It returns the object key.
func (s *Store) Upload(ctx context.Context, name string, body []byte, contentType, originalName string, uploadedAt time.Time) (string, error) {
	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"original-filename": originalName,
			"uploaded-at":       uploadedAt.UTC().Format(time.RFC3339),
			"content-type":      "metadata",
		},
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return key, nil
}

// PresignUpload returns a URL the caller can PUT a file to directly.
func (s *Store) PresignUpload(ctx context.Context, name, contentType string, expires time.Duration) (string, string, error) {
	key := s.Key(name)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", "", fmt.Errorf("presign s3://%s/%s: %w", s.bucket, key, err)
	}
	return req.URL, key, nil
}

// PublicURL returns the virtual-hosted URL of an object key.
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
