// Package s3store stores protected containers as objects in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/hengadev/nqcrypt"
)

const (
	storeName = "s3"

	// ObjectSuffix is appended to every object key.
	ObjectSuffix = ".nqc"

	// codecMetadataKey records which codec wrote an object.
	codecMetadataKey = "nqc-codec"
)

// API is the subset of the S3 client the store uses.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements nqcrypt.ContainerStore on one bucket.
type Store struct {
	client API
	bucket string
	prefix string
	codec  nqcrypt.Codec
}

var _ nqcrypt.ContainerStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithPrefix places every object under prefix, e.g. "containers/".
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.TrimPrefix(prefix, "/")
		return nil
	}
}

// WithCodec selects the container encoding for new objects.
func WithCodec(codec nqcrypt.Codec) Option {
	return func(s *Store) error {
		if codec == nil {
			return fmt.Errorf("%w: codec cannot be nil", nqcrypt.ErrInvalidConfiguration)
		}
		s.codec = codec
		return nil
	}
}

// New creates a Store using client.
func New(client API, bucket string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: s3 client cannot be nil", nqcrypt.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", nqcrypt.ErrInvalidConfiguration)
	}

	s := &Store{client: client, bucket: bucket, codec: nqcrypt.BinaryCodec{}}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFromEnvironment loads the default AWS configuration (environment,
// shared config files, instance role) and creates a Store.
func NewFromEnvironment(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %w", nqcrypt.ErrInvalidConfiguration, err)
	}
	return New(s3.NewFromConfig(cfg), bucket, opts...)
}

// ObjectKey returns the object key used for id.
func (s *Store) ObjectKey(id string) string {
	return path.Join(s.prefix, id) + ObjectSuffix
}

func (s *Store) Save(ctx context.Context, c *nqcrypt.Container) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: container is nil", nqcrypt.ErrInvalidContainer)
	}
	data, err := s.codec.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode container: %w", err)
	}

	id := uuid.NewString()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.ObjectKey(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(s.codec)),
		Metadata:      map[string]string{codecMetadataKey: s.codec.Name()},
	})
	if err != nil {
		return "", nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to upload %s: %w", s.ObjectKey(id), err))
	}
	return id, nil
}

func (s *Store) Load(ctx context.Context, id string) (*nqcrypt.Container, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.ObjectKey(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nqcrypt.NewNotFoundError("container", id)
		}
		return nil, nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to download %s: %w", s.ObjectKey(id), err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to read %s: %w", s.ObjectKey(id), err))
	}

	codec := s.codec
	if name, ok := out.Metadata[codecMetadataKey]; ok {
		if codec, err = nqcrypt.CodecByName(name); err != nil {
			return nil, fmt.Errorf("container '%s': %w", id, err)
		}
	}

	c, err := codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode container '%s': %w", id, err)
	}
	return c, nil
}

// Delete removes the object for id. S3 deletes are idempotent, so the
// object is checked with HeadObject first to report unknown IDs.
func (s *Store) Delete(ctx context.Context, id string) error {
	key := aws.String(s.ObjectKey(id))

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nqcrypt.NewNotFoundError("container", id)
		}
		return nqcrypt.NewStoreUnavailableError(storeName, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to delete %s: %w", *key, err))
	}
	return nil
}

func contentType(codec nqcrypt.Codec) string {
	if codec.Name() == "json" {
		return "application/json"
	}
	return "application/octet-stream"
}
