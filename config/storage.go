package config

import (
	"log/slog"

	"github.com/genz-feed/api-go/storage"
)

// NewImageStore picks R2 when its credentials are set, local disk when
// UPLOAD_DIR is set, and nil otherwise.
func NewImageStore(cfg *Config, log *slog.Logger) (storage.ImageStore, error) {
	switch {
	case cfg.R2.Enabled():
		log.Info("storing images in R2", "bucket", cfg.R2.BucketName)
		return storage.NewR2Store(cfg.R2), nil
	case cfg.UploadDir != "":
		log.Info("storing images on local disk", "dir", cfg.UploadDir)
		return storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	default:
		log.Warn("no image storage configured; posts with images will be rejected")
		return nil, nil
	}
}
