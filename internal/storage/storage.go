package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/jeheap-analysis/pkg/config"
)

// Storage abstracts where heap dump files and analysis results live.
// Dumps are downloaded from here before parsing and result archives are
// uploaded back after analysis.
type Storage interface {
	// Upload stores data under the given key.
	Upload(ctx context.Context, key string, data io.Reader) error

	// UploadFile stores a local file under the given key.
	UploadFile(ctx context.Context, key string, filePath string) error

	// Download retrieves the object stored under key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile retrieves the object stored under key into a local file.
	DownloadFile(ctx context.Context, key string, filePath string) error

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns an access URL for the object, when the backend has one.
	GetURL(key string) string
}

// StorageType identifies a storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage builds a Storage backend from configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// ValidateConfig checks that the storage configuration is usable before
// the service starts pulling tasks.
func ValidateConfig(cfg *config.StorageConfig) error {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("cos bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("cos region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("cos credentials are required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	return nil
}
