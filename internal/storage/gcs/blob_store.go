// Package gcs archives raw pages in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to archive into GCS.
type Config struct {
	Bucket string
}

type objectWriter interface {
	io.Writer
	Close() error
}

type bucket interface {
	attrs(ctx context.Context) error
	newWriter(ctx context.Context, object, contentType string) objectWriter
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b gcsBucket) attrs(ctx context.Context) error {
	_, err := b.handle.Attrs(ctx)
	return err
}

func (b gcsBucket) newWriter(ctx context.Context, object, contentType string) objectWriter {
	w := b.handle.Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	return w
}

// BlobStore uploads archived pages to the configured bucket.
type BlobStore struct {
	bucket bucket
	name   string
}

// New creates a GCS-backed archive and checks the bucket is reachable so a
// misconfiguration fails at startup rather than on the first page.
func New(ctx context.Context, client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive.gcs.bucket is required")
	}
	return newWithBucket(ctx, gcsBucket{handle: client.Bucket(cfg.Bucket)}, cfg.Bucket)
}

func newWithBucket(ctx context.Context, b bucket, name string) (*BlobStore, error) {
	if err := b.attrs(ctx); err != nil {
		return nil, fmt.Errorf("get bucket %q attributes: %w", name, err)
	}
	return &BlobStore{bucket: b, name: name}, nil
}

// PutObject uploads data to path and returns a gs:// URI.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", errors.New("path is required")
	}
	writer := s.bucket.newWriter(ctx, path, contentType)
	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, path), nil
}
