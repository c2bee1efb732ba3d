package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Config holds the settings for the S3 backend.
type S3Config struct {
	Region string
	Bucket string

	// Prefix is prepended to every object key (e.g. "uploads/").
	Prefix string

	// Endpoint overrides the default S3 endpoint for S3-compatible
	// services (MinIO, LocalStack). Implies path-style addressing.
	Endpoint string
}

// S3Store keeps blobs as objects in an S3 bucket. Object keys are
// Prefix + generated UUID; the original filename travels as object
// metadata only.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds a store using the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 blob store: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Put implements Store. The body is buffered by the SDK per part; large
// uploads stream rather than loading into memory.
func (s *S3Store) Put(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	id := uuid.NewString()

	// CountingReader so we can report the stored size without a HeadObject.
	cr := &countReader{r: r}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.key(id)),
		Body:     cr,
		Metadata: map[string]string{"original-name": name},
	})
	if err != nil {
		return "", 0, fmt.Errorf("put blob %s (%s): %w", id, name, err)
	}
	return id, cr.n, nil
}

// Open implements Store.
func (s *S3Store) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get blob %s: %w", id, err)
	}
	return out.Body, nil
}

// Delete implements Store. S3 DeleteObject is idempotent, so a missing
// key is already not an error.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

func (s *S3Store) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + id
}

type countReader struct {
	r io.Reader
	n int64
}

func (c *countReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
