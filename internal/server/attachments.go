package server

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"silverrail/internal/blobstore"
	"silverrail/internal/lifecycle"
)

// upload is a validated file taken from a multipart request.
type upload struct {
	Filename  string
	MediaType string
	Body      io.Reader
	closer    io.Closer
}

func (u upload) Close() error {
	if u.closer == nil {
		return nil
	}
	return u.closer.Close()
}

// attachmentHelper stores uploads and checks client supplied storage keys.
type attachmentHelper struct {
	blobs blobstore.BlobStore
}

func newAttachmentHelper(blobs blobstore.BlobStore) *attachmentHelper {
	return &attachmentHelper{blobs: blobs}
}

// checkKey validates a storage key sent in a JSON body. The key must live
// under prefix and already exist. An empty key is returned as is.
func (h *attachmentHelper) checkKey(ctx context.Context, prefix, field, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}
	if err := blobstore.ValidateKey(key); err != nil {
		return "", badRequestCode(fmt.Errorf("%s: %w", field, err), ErrCodeInvalidFileKey)
	}
	if !blobstore.HasPrefix(key, prefix) {
		return "", badRequestCode(fmt.Errorf("%s must be stored under %s/", field, prefix), ErrCodeInvalidFileKey)
	}
	key = path.Clean(key)
	exists, err := h.blobs.Exists(ctx, key)
	if err != nil {
		return "", blobFailure(err)
	}
	if !exists {
		return "", badRequestCode(fmt.Errorf("%s %q does not exist", field, key), ErrCodeFileNotFound)
	}
	return key, nil
}

func (h *attachmentHelper) put(ctx context.Context, prefix string, up upload) (string, error) {
	key, err := blobstore.UploadKey(prefix, up.Filename)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidFileKey)
	}
	res, err := h.blobs.Put(ctx, key, up.Body)
	if err != nil {
		return "", blobFailure(fmt.Errorf("store file: %w", err))
	}
	return res.Key, nil
}

func (h *attachmentHelper) url(key string) string {
	if strings.TrimSpace(key) == "" {
		return ""
	}
	return h.blobs.URL(key)
}

// attachUpload stores up under prefix, points rec's field at the new key,
// runs the save hook, and persists rec. When the write fails the fresh blob
// is released again.
func attachUpload[T any](
	ctx context.Context,
	h *attachmentHelper,
	binding *lifecycle.Binding[T],
	prefix, field string,
	up upload,
	rec *T,
	set func(*T, string),
	save func(context.Context, *T) error,
) error {
	key, err := h.put(ctx, prefix, up)
	if err != nil {
		return err
	}
	set(rec, key)
	binding.BeforeSave(ctx, rec)
	if err := save(ctx, rec); err != nil {
		binding.ReleaseUnsaved(ctx, field, key)
		return storeFailure(err)
	}
	return nil
}

// saveWithHooks runs the save hook and persists rec. The hook releases
// replaced files before the write, so a failed write leaves the row pointing
// at a key that may already be gone; the record write is never blocked on
// file cleanup.
func saveWithHooks[T any](ctx context.Context, binding *lifecycle.Binding[T], rec *T, save func(context.Context, *T) error) error {
	binding.BeforeSave(ctx, rec)
	if err := save(ctx, rec); err != nil {
		if isForeignKeyConstraint(err) {
			return badRequest(fmt.Errorf("referenced record does not exist"))
		}
		return storeFailure(err)
	}
	return nil
}
