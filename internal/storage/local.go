package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalSlipStorage writes payment slips to disk. Used when no bucket is
// configured; the router serves Dir under /uploads.
type LocalSlipStorage struct {
	dir     string
	baseURL string
}

// NewLocalSlipStorage creates dir if needed.
func NewLocalSlipStorage(dir, publicBaseURL string) (*LocalSlipStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalSlipStorage{dir: dir, baseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

// Dir returns the root directory of stored files.
func (s *LocalSlipStorage) Dir() string {
	return s.dir
}

// Save writes body to dir/key and returns its public URL.
func (s *LocalSlipStorage) Save(ctx context.Context, key string, body io.Reader, size int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create slip directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create slip file: %w", err)
	}
	if _, err := io.Copy(f, io.LimitReader(body, size)); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write slip file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close slip file: %w", err)
	}

	return s.baseURL + "/uploads/" + filepath.ToSlash(clean), nil
}
