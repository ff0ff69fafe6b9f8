package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStorage implements Storage on Google Cloud Storage, the backend the
// grading system was originally deployed against.
type GCSStorage struct {
	client    *gcs.Client
	projectID string
}

// NewGCSStorage creates a new GCS storage instance. ProjectID is only needed
// for bucket creation; credentials come from the ambient GCP environment.
func NewGCSStorage(cfg StorageConfig) (*GCSStorage, error) {
	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

// CreateBucket creates a GCS bucket in the configured project.
func (s *GCSStorage) CreateBucket(ctx context.Context, bucket string) error {
	if s.projectID == "" {
		return errors.New("GCP_PROJECT_ID is required to create buckets")
	}
	if err := s.client.Bucket(bucket).Create(ctx, s.projectID, nil); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// DeleteBucket deletes every object in a GCS bucket, then the bucket itself.
func (s *GCSStorage) DeleteBucket(ctx context.Context, bucket string) error {
	names, err := s.ListFiles(ctx, bucket)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.Delete(ctx, bucket, name); err != nil {
			return err
		}
	}

	if err := s.client.Bucket(bucket).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}

// ListFiles returns the object names in a GCS bucket.
func (s *GCSStorage) ListFiles(ctx context.Context, bucket string) ([]string, error) {
	names := make([]string, 0)
	it := s.client.Bucket(bucket).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Upload stores an object in a GCS bucket.
func (s *GCSStorage) Upload(ctx context.Context, bucket, name string, data io.Reader) error {
	w := s.client.Bucket(bucket).Object(sanitizeObjectName(name)).NewWriter(ctx)
	w.ContentType = getContentType(name)
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// Download retrieves an object from a GCS bucket.
func (s *GCSStorage) Download(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(bucket).Object(sanitizeObjectName(name)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download from GCS: %w", err)
	}
	return reader, nil
}

// Delete removes an object from a GCS bucket.
func (s *GCSStorage) Delete(ctx context.Context, bucket, name string) error {
	if err := s.client.Bucket(bucket).Object(sanitizeObjectName(name)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}
