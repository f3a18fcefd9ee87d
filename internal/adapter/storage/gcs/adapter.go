// Package gcs provides a Google Cloud Storage implementation of the storage
// adapter interfaces, selectable for the private lake bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageAdapter "github.com/tidewind/aircast/internal/adapter/storage"
	storageConfig "github.com/tidewind/aircast/internal/adapter/storage/config"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

// ProviderType defines the type identifier for this GCS storage adapter.
const ProviderType = "gcs"

func init() {
	storageAdapter.RegisterAdapter(ProviderType, NewGCSAdapter)
}

// gcsAdapter implements the storage.Connection interface on top of the GCS client.
type gcsAdapter struct {
	cfg    storageConfig.StorageConfig
	name   string
	client *gstorage.Client
}

var _ storageAdapter.Connection = (*gcsAdapter)(nil)

// NewGCSAdapter creates a GCS-backed storage connection. Credentials come from
// the configured service account file, or from application default credentials
// when none is configured.
func NewGCSAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.Connection, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gstorage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}

	logger.Debugf("Created GCS client for connection '%s'.", name)
	return &gcsAdapter{cfg: cfg, name: name, client: client}, nil
}

// Close releases the underlying GCS client.
func (a *gcsAdapter) Close() error {
	return a.client.Close()
}

// Type returns the type of the adapter, which is "gcs".
func (a *gcsAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *gcsAdapter) Name() string {
	return a.name
}

func (a *gcsAdapter) resolveBucket(bucket string) string {
	if bucket == "" {
		return a.cfg.BucketName
	}
	return bucket
}

// Upload writes the object at bucket/objectName, overwriting any existing object.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.client.Bucket(a.resolveBucket(bucket)).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object '%s' to bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object '%s' in bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	logger.Tracef("Uploaded object '%s' to bucket '%s' (gcs adapter '%s').", objectName, a.resolveBucket(bucket), a.name)
	return nil
}

// Download opens a reader for the object at bucket/objectName.
// The returned io.ReadCloser must be closed by the caller.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := a.client.Bucket(a.resolveBucket(bucket)).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object '%s' in bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	return r, nil
}

// ListObjects iterates objects under prefix and calls fn for every object name.
func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	it := a.client.Bucket(a.resolveBucket(bucket)).Objects(ctx, &gstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects in bucket '%s' with prefix '%s': %w", a.resolveBucket(bucket), prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject deletes the object at bucket/objectName.
// Deleting a non-existent object logs a warning and returns nil.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.client.Bucket(a.resolveBucket(bucket)).Object(objectName).Delete(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			logger.Warnf("Attempted to delete non-existent object '%s' (gcs adapter '%s').", objectName, a.name)
			return nil
		}
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", objectName, a.resolveBucket(bucket), err)
	}
	return nil
}
