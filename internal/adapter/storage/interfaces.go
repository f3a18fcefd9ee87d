// Package storage defines the common interfaces for object-storage adapters.
// These interfaces abstract storage operations so that the pipeline can talk to
// different backends (S3, GCS, local file system) through a unified API.
package storage

import (
	"context"
	"io"
)

// Executor defines generic object-storage operations.
type Executor interface {
	// Upload uploads data to the specified bucket and object name, overwriting
	// any existing object at that key. 'contentType' is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download downloads data from the specified bucket and object name.
	// It returns a ReadCloser which must be closed by the caller after use.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects lists objects within the specified bucket and prefix.
	// The 'fn' callback is called for each object name found, allowing large
	// listings to be processed without loading all names into memory.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the specified object from the bucket.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// Connection represents an object-storage connection.
type Connection interface {
	Executor

	// Close releases any resources held by the connection.
	Close() error
	// Type returns the backend type of the connection (e.g., "s3", "gcs", "local").
	Type() string
	// Name returns the configured name of this connection.
	Name() string
}

// Provider manages the acquisition and lifecycle of storage connections.
type Provider interface {
	// GetConnection retrieves (or lazily establishes) the connection with the given name.
	GetConnection(name string) (Connection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
}
