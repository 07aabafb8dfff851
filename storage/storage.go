// Package storage wraps the Cloud Storage bucket used for service-request
// images and generated exports. Uploads go to a generated path and return
// the retrievable URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// BlobStore wraps the Cloud Storage client for one bucket.
type BlobStore struct {
	client *gcs.Client
	bucket string
}

// NewBlobStore initializes a Cloud Storage client for the given bucket.
func NewBlobStore(ctx context.Context, bucket, credentialsPath string) (*BlobStore, error) {
	client, err := gcs.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing Cloud Storage client: %w", err)
	}

	log.Printf("✅ Connected to Cloud Storage bucket: %s", bucket)

	return &BlobStore{
		client: client,
		bucket: bucket,
	}, nil
}

// Close closes the Cloud Storage client.
func (b *BlobStore) Close() error {
	return b.client.Close()
}

// Upload writes the content under the given object path with the given
// content type and returns the download URL.
func (b *BlobStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	w := b.client.Bucket(b.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload %s: %w", path, err)
	}

	return b.URL(path), nil
}

// URL returns the download URL for an object path.
func (b *BlobStore) URL(path string) string {
	return "https://storage.googleapis.com/" + url.PathEscape(b.bucket) + "/" + url.PathEscape(path)
}
