package blobstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/sha256-simd"
)

const (
	tmpDirName           = ".tmp"
	availableNameRetries = 32
)

// LocalStore stores blob bytes under a media root directory, keyed by relative path.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a local store rooted at root. baseURL prefixes keys in URL.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("media root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "/media/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: abs, baseURL: baseURL}, nil
}

// Root returns the absolute media root.
func (s *LocalStore) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Put streams bytes into a temp file, then moves them to key or to the first
// available variant of key.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader) (PutResult, error) {
	var zero PutResult
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if _, err := s.pathFromKey(key); err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDirName), "put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	candidate := key
	for attempt := 0; attempt < availableNameRetries; attempt++ {
		if attempt > 0 {
			candidate, err = alternateKey(key)
			if err != nil {
				cleanup()
				return zero, err
			}
		}
		dst, err := s.pathFromKey(candidate)
		if err != nil {
			cleanup()
			return zero, err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			cleanup()
			return zero, err
		}
		// Link fails when dst exists, so a concurrent writer never gets overwritten.
		if err := os.Link(tmpPath, dst); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			cleanup()
			return zero, err
		}
		_ = os.Remove(tmpPath)
		return PutResult{Key: candidate, SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: n}, nil
	}

	cleanup()
	return zero, fmt.Errorf("no available name for %s", key)
}

// Open returns a reader for blob key content.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		f.Close()
		if err == nil {
			err = &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
		}
		return nil, err
	}
	return f, nil
}

// Exists reports whether a blob is stored under key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Delete removes a blob object. Missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL resolves the public URL of key.
func (s *LocalStore) URL(key string) string {
	if s == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return s.baseURL + strings.Join(parts, "/")
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	clean := path.Clean(strings.TrimSpace(key))
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
