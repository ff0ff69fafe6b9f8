package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Storage is the bucket-oriented object store the grading pipeline reads
// reference material from and the proxy endpoints write to.
type Storage interface {
	// CreateBucket creates a named bucket.
	CreateBucket(ctx context.Context, bucket string) error

	// DeleteBucket removes a bucket and everything in it.
	DeleteBucket(ctx context.Context, bucket string) error

	// ListFiles returns the object names in a bucket.
	ListFiles(ctx context.Context, bucket string) ([]string, error)

	// Upload stores an object under the given name.
	Upload(ctx context.Context, bucket, name string, data io.Reader) error

	// Download retrieves an object by name.
	Download(ctx context.Context, bucket, name string) (io.ReadCloser, error)

	// Delete removes an object by name.
	Delete(ctx context.Context, bucket, name string) error
}

// StorageType represents the storage backend type.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeGCS   StorageType = "gcs"
)

// StorageConfig holds configuration for storage.
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
	GCPProjectID string // For GCS bucket creation
}

// NewStorage creates a storage instance based on configuration.
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Storage(cfg)
	case StorageTypeGCS:
		return NewGCSStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStorageFromEnv creates a storage instance from environment variables.
func NewStorageFromEnv() (Storage, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local" // Default to local for development
	}

	cfg := StorageConfig{
		Type: StorageType(storageType),
	}

	switch cfg.Type {
	case StorageTypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/buckets" // Default local storage path
		}
		cfg.LocalPath = localPath
		return NewLocalStorage(cfg.LocalPath)

	case StorageTypeS3:
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		return NewS3Storage(cfg)

	case StorageTypeGCS:
		cfg.GCPProjectID = os.Getenv("GCP_PROJECT_ID")
		return NewGCSStorage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// sanitizeObjectName strips path elements that would escape the bucket.
func sanitizeObjectName(name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return strings.TrimPrefix(name, "/")
}
