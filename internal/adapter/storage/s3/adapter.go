// Package s3 provides an AWS S3 implementation of the storage adapter
// interfaces. It supports both signed clients (credentials resolved from the
// environment) and anonymous clients for public buckets such as the
// measurement archive.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	storageAdapter "github.com/tidewind/aircast/internal/adapter/storage"
	storageConfig "github.com/tidewind/aircast/internal/adapter/storage/config"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

// ProviderType defines the type identifier for this S3 storage adapter.
const ProviderType = "s3"

func init() {
	storageAdapter.RegisterAdapter(ProviderType, NewS3Adapter)
}

// s3Adapter implements the storage.Connection interface on top of the AWS SDK.
type s3Adapter struct {
	cfg    storageConfig.StorageConfig
	name   string
	client *awss3.Client
}

var _ storageAdapter.Connection = (*s3Adapter)(nil)

// NewS3Adapter creates an S3-backed storage connection. When the configuration
// marks the connection anonymous, requests are sent unsigned, which is what the
// public measurement archive expects.
func NewS3Adapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.Connection, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3 storage adapter '%s': failed to load AWS configuration: %w", name, err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Anonymous {
			o.Credentials = aws.AnonymousCredentials{}
		}
	})

	logger.Debugf("Created S3 client for connection '%s' (region=%s, anonymous=%t).", name, cfg.Region, cfg.Anonymous)
	return &s3Adapter{cfg: cfg, name: name, client: client}, nil
}

// Close does nothing; the underlying HTTP client is shared and managed by the SDK.
func (a *s3Adapter) Close() error {
	return nil
}

// Type returns the type of the adapter, which is "s3".
func (a *s3Adapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *s3Adapter) Name() string {
	return a.name
}

func (a *s3Adapter) resolveBucket(bucket string) string {
	if bucket == "" {
		return a.cfg.BucketName
	}
	return bucket
}

// Upload puts the object at bucket/objectName, overwriting any existing object
// at that key. There is no versioning, conditional write, or existence check.
func (a *s3Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	_, err := a.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(a.resolveBucket(bucket)),
		Key:         aws.String(objectName),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	logger.Tracef("Uploaded object '%s' to bucket '%s' (s3 adapter '%s').", objectName, a.resolveBucket(bucket), a.name)
	return nil
}

// Download gets the object at bucket/objectName.
// The returned io.ReadCloser must be closed by the caller.
func (a *s3Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.resolveBucket(bucket)),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	return out.Body, nil
}

// ListObjects pages through the bucket listing under prefix and calls fn for
// every object key.
func (a *s3Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	paginator := awss3.NewListObjectsV2Paginator(a.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(a.resolveBucket(bucket)),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects in bucket '%s' with prefix '%s': %w", a.resolveBucket(bucket), prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if err := fn(*obj.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteObject deletes the object at bucket/objectName.
// A missing object is not reported as an error by S3 and is ignored here too.
func (a *s3Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	_, err := a.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(a.resolveBucket(bucket)),
		Key:    aws.String(objectName),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			logger.Warnf("Attempted to delete non-existent object '%s' (s3 adapter '%s').", objectName, a.name)
			return nil
		}
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	return nil
}
