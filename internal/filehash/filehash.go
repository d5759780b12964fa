// Package filehash computes content digests of stored blobs.
package filehash

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
)

// ChunkSize bounds how much of a blob is held in memory while hashing.
const ChunkSize = 4096

// Opener opens blob content by storage key.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Sum returns the hex SHA-256 digest of everything readable from r.
// The digest depends on content only.
func Sum(r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("reader is required")
	}
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumKey opens key through o and hashes its content.
func SumKey(ctx context.Context, o Opener, key string) (string, error) {
	if o == nil {
		return "", fmt.Errorf("blob opener is required")
	}
	rc, err := o.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	digest, err := Sum(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return digest, nil
}
