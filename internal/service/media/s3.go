package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"videotube/internal/apperrors"
)

type Config struct {
	// S3 or minio endpoint, e.g. http://localhost:9000
	Endpoint string
	Region   string
	Bucket   string

	AccessKey string
	SecretKey string

	// Base URL the stored objects are served from.
	// Defaults to "<Endpoint>/<Bucket>".
	PublicBaseURL string
}

// Uploaded object reference: Key for later deletion, URL for the user row
type Object struct {
	Key string
	URL string
}

// S3API is the subset of the s3 client the store uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Object storage for avatars and cover images
type Store struct {
	client  S3API
	bucket  string
	baseURL string
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket must not be empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("error while loading s3 config. Err: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true // minio serves buckets by path, not subdomain
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// NewStoreWithClient wires a prepared client, used in tests
func NewStoreWithClient(client S3API, bucket string, baseURL string) *Store {
	return &Store{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Disabled returns a store that rejects every upload. Used when object
// storage is not configured so the rest of the service can still run.
func Disabled() *Store {
	return &Store{client: disabledClient{}}
}

type disabledClient struct{}

func (disabledClient) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, errors.New("object storage is not configured")
}

func (disabledClient) DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

// Upload stores the object under a fresh date-based key.
// kind is the key prefix: "avatars" or "covers".
func (s *Store) Upload(ctx context.Context, kind string, body io.Reader, contentType string) (Object, error) {
	key := randomStorageKey(kind)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("%w: %w", apperrors.ErrMediaUploadFailed, err)
	}

	return Object{
		Key: key,
		URL: fmt.Sprintf("%s/%s", s.baseURL, key),
	}, nil
}

// Delete removes the object. Idempotent: deleting a missing key is not an
// error, so it is safe to run as compensation for a failed registration.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error while deleting object %v. Err: %w", key, err)
	}

	return nil
}

func randomStorageKey(kind string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", kind, d.Year(), d.Month(), d.Day(), uuid.New())
}
