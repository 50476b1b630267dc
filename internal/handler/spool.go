package handler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/quickshareqr/server-go/internal/util"
)

// ObjectStore accepts a byte stream and returns a durable retrievable URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// spoolUpload writes a multipart part to a uniquely named file in the scratch
// directory and returns its path. The caller owns deleting it on every path.
func spoolUpload(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	path := filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), util.SanitizeFilename(fh.Filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("spool upload %s: %w", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("flush temp file: %w", err)
	}
	return path, nil
}

// uploadFromFile streams a spooled file into the object store.
func uploadFromFile(ctx context.Context, store ObjectStore, key, path, contentType string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat temp file: %w", err)
	}

	url, err := store.Upload(ctx, key, f, info.Size(), contentType)
	if err != nil {
		return "", 0, err
	}
	return url, info.Size(), nil
}

func contentTypeFor(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(fh.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
