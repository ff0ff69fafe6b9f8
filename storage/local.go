package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage on the local filesystem: each bucket is a
// directory under basePath. Intended for development and tests.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a local storage instance rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// CreateBucket creates the bucket directory.
func (s *LocalStorage) CreateBucket(ctx context.Context, bucket string) error {
	if err := os.MkdirAll(s.bucketPath(bucket), 0755); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// DeleteBucket removes the bucket directory and its contents.
func (s *LocalStorage) DeleteBucket(ctx context.Context, bucket string) error {
	if err := os.RemoveAll(s.bucketPath(bucket)); err != nil {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}

// ListFiles returns the object names in a bucket.
func (s *LocalStorage) ListFiles(ctx context.Context, bucket string) ([]string, error) {
	entries, err := os.ReadDir(s.bucketPath(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("bucket not found: %s", bucket)
		}
		return nil, fmt.Errorf("failed to list bucket: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Upload stores an object in a bucket.
func (s *LocalStorage) Upload(ctx context.Context, bucket, name string, data io.Reader) error {
	fullPath := s.objectPath(bucket, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Download retrieves an object from a bucket.
func (s *LocalStorage) Download(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	file, err := os.Open(s.objectPath(bucket, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s/%s", bucket, name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes an object from a bucket.
func (s *LocalStorage) Delete(ctx context.Context, bucket, name string) error {
	err := os.Remove(s.objectPath(bucket, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) bucketPath(bucket string) string {
	return filepath.Join(s.basePath, sanitizeObjectName(bucket))
}

func (s *LocalStorage) objectPath(bucket, name string) string {
	return filepath.Join(s.bucketPath(bucket), sanitizeObjectName(name))
}
