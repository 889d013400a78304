package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/templui/claimguard/internal/config"
)

var ErrNotFound = errors.New("file not found")

// Storage stores uploaded claim images by relative path.
type Storage interface {
	Save(ctx context.Context, path string, file io.Reader) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	// URL returns a URL a client can fetch the file from
	URL(path string) string
}

// New picks the storage driver from config: "local" (default) or "s3".
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "", "local":
		slog.Info("initializing local storage", "root", c.UploadDir)
		return NewLocalStorage(c.UploadDir, "/uploads")
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(context.Background(), S3Config{
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Endpoint:      c.S3Endpoint,
			PresignExpiry: c.S3PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
