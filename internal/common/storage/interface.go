package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the minimal object operations the match archive
// needs. It is intentionally small so MinIO/AWS-S3 implementations can be
// swapped without touching business logic.
type ObjectStorage interface {
	// EnsureBucket creates the bucket if it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject writes one object. size must be the exact byte length.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, size int64, contentType string) error

	// GetObject opens a reader for an object. Caller must close it.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

	// ListObjects streams object keys under a prefix.
	ListObjects(ctx context.Context, bucket, prefix string) <-chan ObjectInfo

	// RemoveObjects deletes the given keys, stopping on the first failure.
	RemoveObjects(ctx context.Context, bucket string, keys []string) error
}

// ObjectInfo is one listing entry; Err is set when the listing itself failed.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
	Err       error
}
