// Package photostore archives raw receipt photos in a GCS bucket so the
// original image is still available after the receipt has been parsed.
package photostore

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Store uploads receipt photos to a single bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a Store. Application Default Credentials or the service
// account credentials file must be configured in the environment.
func New(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("photostore.New: create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// SaveReceipt uploads the photo under receipts/YYYY/MM/DD/<uuid> and returns
// the gs:// URI recorded on the transaction.
func (s *Store) SaveReceipt(ctx context.Context, photo io.Reader, contentType string, taken time.Time) (string, error) {
	objectName := fmt.Sprintf("receipts/%s/%s", taken.Format("2006/01/02"), uuid.New().String())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, photo); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("SaveReceipt: copy photo to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("SaveReceipt: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}
