package blobstore

import (
	"context"
	"io"
)

// PutResult describes one persisted blob payload.
type PutResult struct {
	Key       string
	SHA256    string
	SizeBytes int64
}

// BlobStore is the byte-storage abstraction used by catalogue services and the
// attachment lifecycle manager. Keys are slash-separated relative paths.
type BlobStore interface {
	// Put stores content under key, or under a free variant of key when it is taken.
	Put(ctx context.Context, key string, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes a blob. Missing blobs are not an error.
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
