// Package media stores outfit images on local disk, S3 or GCS.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"fashfolio/internal/config"
	"fashfolio/internal/observability"
)

// Store persists objects under slash-separated keys and returns their
// public URLs.
type Store interface {
	Name() string
	Save(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid media key")

// New builds the Store selected by cfg.MediaDriver.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MediaDriver {
	case config.MediaLocal, "":
		return NewLocalStore(cfg.MediaLocalDir, cfg.MediaPublicBaseURL)
	case config.MediaS3:
		return NewS3Store(cfg.S3Region, cfg.S3Bucket)
	case config.MediaGCS:
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.MediaDriver)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func observe(driver, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.MediaOperations.WithLabelValues(driver, operation, outcome).Inc()
}
