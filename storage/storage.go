// Package storage persists post images and returns the public URL they are
// served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted image, in bytes.
const MaxImageSize = 10 * 1024 * 1024

var (
	ErrEmptyImage      = errors.New("image is empty")
	ErrImageTooLarge   = errors.New("image exceeds 10MB")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// Image is an uploaded file as received from the client.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ImageStore stores images and deletes them by the URL Store returned.
type ImageStore interface {
	Store(ctx context.Context, ownerID uint, img Image) (string, error)
	Delete(ctx context.Context, url string) error
}

// IsInvalidImage reports whether err rejects the image itself rather than
// signalling a backend failure.
func IsInvalidImage(err error) bool {
	return errors.Is(err, ErrEmptyImage) || errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrUnsupportedType)
}

// Validate checks size and type and returns the effective content type. The
// type is sniffed from the data; the declared type is only trusted when
// sniffing is inconclusive (HEIC is not recognised by the sniffer).
func Validate(img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	if len(img.Data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(img.Data)
	if contentType == "application/octet-stream" {
		contentType = strings.ToLower(strings.TrimSpace(img.ContentType))
	}
	if _, ok := allowedTypes[contentType]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return contentType, nil
}

// objectKey builds uploads/photo/{ownerID}/{unix}_{uuid}{ext}.
func objectKey(ownerID uint, fileName, contentType string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) > 6 {
		ext = allowedTypes[contentType]
	}
	return fmt.Sprintf("uploads/photo/%d/%d_%s%s", ownerID, now.Unix(), uuid.New().String(), ext)
}

// keyFromURL strips baseURL from a URL produced by Store.
func keyFromURL(baseURL, url string) (string, error) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q is not served from %q", url, baseURL)
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("url %q has an invalid object key", url)
	}
	return key, nil
}
