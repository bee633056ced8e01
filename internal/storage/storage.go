package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/BerylCAtieno/loanmitra/internal/config"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage is the content store for uploaded loan documents. Keys are
// slash-separated and relative to the bucket.
type Storage interface {
	Bucket() string
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New builds the driver named by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Storage(ctx, S3Options{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UseSSL:          cfg.S3UseSSL,
			Bucket:          cfg.StorageBucket,
		})
	case "local":
		return NewLocalStorage(cfg.LocalStorageDir, cfg.StorageBucket)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// CleanKey normalizes key and rejects anything that could escape the bucket.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
